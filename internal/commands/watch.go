package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"costs/internal/amqp"
	"costs/internal/cli"
	applog "costs/internal/log"
	"costs/internal/worker"
)

type eventHandler func(context.Context, *amqp.Event) error

func newWatchCommand(a *app) *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print expense change events from the message broker",
		Long: `Print expense change events from the message broker.

With --sync, every event also re-exports the current month's report to
Google Sheets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.AMQPURL == "" {
				return errors.New("watch needs AMQP_URL")
			}

			logger := a.logger.WithComponent(applog.ComponentAMQP)
			ctx, cancel := cli.GracefulShutdown(cmd.Context(), logger, nil)
			defer cancel()

			handlers := []eventHandler{printEvent(cmd.OutOrStdout())}
			if sync {
				exporters, closeExporters, err := a.buildExporters(cmd, []string{"sheets"}, "")
				if err != nil {
					return err
				}
				defer closeExporters()

				res, err := a.openBackend(ctx)
				if err != nil {
					return err
				}
				defer a.closeBackend(ctx, res)

				w := worker.NewSyncWorker(res.Service, exporters...)
				if err := w.StartupSync(ctx); err != nil {
					logger.WarnContext(ctx, "Startup sync failed", applog.FieldError, err)
				}
				handlers = append(handlers, w.HandleEvent)
			}

			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			logger.InfoContext(ctx, "Watching expense events", "queue", a.cfg.AMQPQueue, "sync", sync)
			err = client.Watch(ctx, chain(handlers...))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "re-export the current month to Google Sheets on every event")

	return cmd
}

// chain runs handlers in order and stops at the first failure.
func chain(handlers ...eventHandler) eventHandler {
	return func(ctx context.Context, ev *amqp.Event) error {
		for _, h := range handlers {
			if err := h(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}
}

func printEvent(out io.Writer) eventHandler {
	return func(_ context.Context, ev *amqp.Event) error {
		ts := ev.Timestamp.Format("2006-01-02 15:04:05")
		switch ev.Type {
		case amqp.EventExpenseRecorded:
			_, err := fmt.Fprintf(out, "%s %s #%d in %s\n", ts, ev.Type, ev.ID, ev.Store)
			return err
		default:
			_, err := fmt.Fprintf(out, "%s %s in %s\n", ts, ev.Type, ev.Store)
			return err
		}
	}
}
