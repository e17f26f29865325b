package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("TRUSTFLOW_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("TRUSTFLOW_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "collection-prefix",
				Usage:       "Prefix prepended to every collection name",
				Sources:     cli.EnvVars("TRUSTFLOW_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)
			if err := indexConfig.Validate(); err != nil {
				return goerr.Wrap(err, "invalid index configuration")
			}

			client, err := fireconf.New(ctx, projectID, firestoreDatabaseID(databaseID), indexConfig,
				fireconf.WithDryRun(dryRun),
				fireconf.WithLogger(logger),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				current, err := client.Import(ctx, collectionNames(indexConfig)...)
				if err != nil {
					return goerr.Wrap(err, "failed to import current indexes")
				}
				diff, err := client.DiffConfigs(current)
				if err != nil {
					return goerr.Wrap(err, "failed to diff index configuration")
				}
				if len(diff.Collections) == 0 {
					logger.Info("No changes required")
					return nil
				}
				for _, col := range diff.Collections {
					logger.Info("Migration step",
						"collection", col.Name,
						"action", col.Action,
						"indexes_to_add", len(col.IndexesToAdd),
						"indexes_to_delete", len(col.IndexesToDelete))
				}
			}

			logger.Info("Applying migrations", "dryRun", dryRun)
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")

			return nil
		},
	}
}

// firestoreDatabaseID maps an empty flag to the name of the default database
func firestoreDatabaseID(id string) string {
	if id == "" {
		return "(default)"
	}
	return id
}

func collectionNames(cfg *fireconf.Config) []string {
	names := make([]string, 0, len(cfg.Collections))
	for _, col := range cfg.Collections {
		names = append(names, col.Name)
	}
	return names
}

// getIndexConfig returns the composite indexes required by the Firestore repository.
// Issue listing uses equality filters only and needs none.
func getIndexConfig(prefix string) *fireconf.Config {
	name := "activities"
	if prefix != "" {
		name = prefix + "_" + name
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: name,
				Indexes: []fireconf.Index{
					// ListByUser: user_id ASC, timestamp DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "user_id", Order: fireconf.OrderAscending},
							{Path: "timestamp", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
