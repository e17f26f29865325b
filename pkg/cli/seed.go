package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/trustflow/pkg/cli/config"
	domainConfig "github.com/secmon-lab/trustflow/pkg/domain/model/config"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/usecase"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var seedFile string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "seed-file",
			Usage:       "TOML file with lookup entries. Built-in defaults are used when empty",
			Sources:     cli.EnvVars("TRUSTFLOW_SEED_FILE"),
			Destination: &seedFile,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Seed default statuses, priorities, types and severities into empty collections",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			seed, err := loadSeed(seedFile)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			counts, err := usecase.New(repo).Lookup.Seed(ctx, seed)
			if err != nil {
				return goerr.Wrap(err, "failed to seed lookups")
			}

			for _, kind := range types.AllLookupKinds() {
				logging.Default().Info("Seeded lookups", "kind", kind, "inserted", counts[kind])
			}
			return nil
		},
	}
}

func loadSeed(path string) (*domainConfig.LookupSeed, error) {
	if path == "" {
		return domainConfig.DefaultLookupSeed(), nil
	}

	cfg, err := config.LoadSeedConfiguration(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed file", goerr.V("path", path))
	}
	return cfg.ToDomainLookupSeed(), nil
}
