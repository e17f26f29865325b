package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/trustflow/pkg/cli/config"
	httpctrl "github.com/secmon-lab/trustflow/pkg/controller/http"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
	"github.com/secmon-lab/trustflow/pkg/usecase"
	"github.com/secmon-lab/trustflow/pkg/utils/async"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var queueSize int
	var deliveryTimeout time.Duration
	var persistActivity bool
	var repoCfg config.Repository
	var eventLogCfg config.EventLog
	var notifyCfg config.Notify

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TRUSTFLOW_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "audit-queue-size",
			Usage:       "Capacity of the audit event queue; events are dropped when it is full",
			Value:       activity.DefaultQueueSize,
			Sources:     cli.EnvVars("TRUSTFLOW_AUDIT_QUEUE_SIZE"),
			Destination: &queueSize,
		},
		&cli.DurationFlag{
			Name:        "audit-delivery-timeout",
			Usage:       "Deadline for publishing or persisting one audit event",
			Value:       activity.DefaultDeliveryTimeout,
			Sources:     cli.EnvVars("TRUSTFLOW_AUDIT_DELIVERY_TIMEOUT"),
			Destination: &deliveryTimeout,
		},
		&cli.BoolFlag{
			Name:        "persist-activity",
			Usage:       "Also store audit events in the repository for the /api/logs endpoints",
			Value:       true,
			Sources:     cli.EnvVars("TRUSTFLOW_PERSIST_ACTIVITY"),
			Destination: &persistActivity,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, eventLogCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"repository", repoCfg,
				"event_log", eventLogCfg,
				"notify", notifyCfg)

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

			notifier, err := notifyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize notifier")
			}

			publisher := activity.NewPublisher(eventLog)
			recorderOpts := []activity.RecorderOption{
				activity.WithQueueSize(queueSize),
				activity.WithDeliveryTimeout(deliveryTimeout),
			}
			if persistActivity {
				recorderOpts = append(recorderOpts, activity.WithStore(repo.Activity()))
			}
			recorder := activity.NewRecorder(publisher, recorderOpts...)
			recorder.Start(logging.With(context.Background(), logging.Default()))

			uc := usecase.New(repo,
				usecase.WithAuditRecorder(recorder),
				usecase.WithNotifier(notifier),
				usecase.WithActivityPublisher(publisher),
				usecase.WithActivityTailer(activity.NewConsumer(eventLog)),
			)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				recorder.Stop(stopCtx)
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Flush audit events and notifications of completed requests
				recorder.Stop(shutdownCtx)
				if !async.Wait(5 * time.Second) {
					logging.Default().Warn("pending notifications abandoned at shutdown")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
