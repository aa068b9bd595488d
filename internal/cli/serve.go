package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/api"
	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/queue"
	"github.com/maintainly/fssync/internal/worker"
)

// NewServeCommand starts the HTTP API with an in-process worker pool.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var noWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync API",
		Long: `Serve the HTTP API. Queued jobs are consumed by an in-process worker pool
unless --no-worker is set, in which case a separate "fssync worker" must read
the RabbitMQ queue. With SYNC_INTERVAL set a full sync is queued on every tick.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, noWorker)
		},
	}
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not consume jobs in this process")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, noWorker bool) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if noWorker && a.cfg.RabbitMQURL == "" {
		return &ExitError{Code: ExitCommandError, Message: "--no-worker needs RABBITMQ_URL"}
	}
	qclient, err := a.queueClient()
	if err != nil {
		return wrapExitError(ExitCommandError, "connect queue", err)
	}
	defer qclient.Close()

	var wk *worker.Worker
	if !noWorker {
		wk = worker.NewWorker(a.store, qclient, a.orch, a.cfg.Workers, a.logger.Named("worker"))
		wk.Start(ctx)
	}
	if a.cfg.SyncInterval > 0 {
		go schedule(ctx, a, qclient)
	}

	h := api.NewHandler(a.orch, a.store, a.cursors, qclient, a.logger.Named("api"))
	srv := &http.Server{
		Addr:    a.cfg.HTTPAddr,
		Handler: h.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return wrapExitError(ExitCommandError, "listen", err)
	}
	a.logger.Info("shutting down")
	ctxSh, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxSh)
	if wk != nil {
		wk.Wait()
	}
	return nil
}

// schedule queues a full sync job on every tick of the sync interval.
func schedule(ctx context.Context, a *app, q queue.Client) {
	t := time.NewTicker(a.cfg.SyncInterval)
	defer t.Stop()
	a.logger.Info("scheduled sync enabled", zap.Duration("interval", a.cfg.SyncInterval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			id, err := a.store.CreateJob(ctx, &model.Job{Stream: model.JobFull})
			if err != nil {
				a.logger.Error("create scheduled job", zap.Error(err))
				continue
			}
			if err := q.Publish(ctx, id); err != nil {
				a.logger.Warn("failed to publish scheduled job", zap.String("job", id), zap.Error(err))
			}
		}
	}
}

// NewWorkerCommand consumes queued jobs without serving HTTP.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "worker",
		Short:         "Consume sync jobs from RabbitMQ",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.RabbitMQURL == "" {
				return &ExitError{Code: ExitCommandError, Message: "worker needs RABBITMQ_URL"}
			}
			qclient, err := a.queueClient()
			if err != nil {
				return wrapExitError(ExitCommandError, "connect queue", err)
			}
			defer qclient.Close()

			wk := worker.NewWorker(a.store, qclient, a.orch, a.cfg.Workers, a.logger.Named("worker"))
			wk.Start(ctx)
			<-ctx.Done()
			a.logger.Info("shutting down")
			wk.Wait()
			return nil
		},
	}
}
