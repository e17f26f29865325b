package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/trustflow/pkg/cli/config"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
	"github.com/secmon-lab/trustflow/pkg/usecase"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdActivity() *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Inspect the activity event stream",
		Commands: []*cli.Command{
			cmdActivityTail(),
		},
	}
}

func cmdActivityTail() *cli.Command {
	var count int
	var repoCfg config.Repository
	var eventLogCfg config.EventLog

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Number of most recent events to print",
			Value:       10,
			Destination: &count,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, eventLogCfg.Flags()...)

	return &cli.Command{
		Name:  "tail",
		Usage: "Print the most recent activity events",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			eventLog, err := eventLogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize event log")
			}
			defer func() {
				if err := eventLog.Close(); err != nil {
					logging.Default().Error("failed to close event log", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, usecase.WithActivityTailer(activity.NewConsumer(eventLog)))
			summaries, err := uc.Activity.RecentActivity(ctx, count)
			if err != nil {
				return err
			}

			printSummaries(os.Stdout, summaries)
			return nil
		},
	}
}

var (
	ageColor  = color.New(color.FgHiBlack)
	userColor = color.New(color.FgCyan, color.Bold)
)

func printSummaries(w io.Writer, summaries []*model.ActivitySummary) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(w, "no activity")
		return
	}

	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
			ageColor.Sprintf("%-16s", s.RelativeAge),
			userColor.Sprint(s.User),
			s.Description)
	}
}
