package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/queue"
	"github.com/maintainly/fssync/internal/store"
	"github.com/maintainly/fssync/internal/syncer"
)

// Runner is the part of the orchestrator a worker drives.
type Runner interface {
	RunFullSync(ctx context.Context) syncer.Report
	RunStream(ctx context.Context, name string) (syncer.StreamResult, error)
}

type Worker struct {
	store      store.JobStore
	qclient    queue.Client
	runner     Runner
	workerPool int
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewWorker builds a worker pool. The orchestrator serialises runs anyway, so
// a pool larger than one only helps to drain invalid jobs faster.
func NewWorker(s store.JobStore, q queue.Client, r Runner, pool int, logger *zap.Logger) *Worker {
	if pool <= 0 {
		pool = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{store: s, qclient: q, runner: r, workerPool: pool, logger: logger}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workerPool; i++ {
		w.wg.Add(1)
		go func(idx int) {
			defer w.wg.Done()
			log := w.logger.With(zap.Int("worker", idx))
			log.Info("worker started")
			msgs, err := w.qclient.Consume(ctx)
			if err != nil {
				log.Error("consume failed", zap.Error(err))
				return
			}
			for {
				select {
				case <-ctx.Done():
					log.Info("worker stopping")
					return
				case id, ok := <-msgs:
					if !ok {
						log.Info("messages channel closed")
						return
					}
					w.process(ctx, id)
				}
			}
		}(i)
	}
}

// Wait blocks until every worker goroutine returned.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) process(ctx context.Context, id string) {
	log := w.logger.With(zap.String("job", id))
	j, err := w.store.GetJob(ctx, id)
	if err != nil {
		log.Warn("job not found", zap.Error(err))
		return
	}

	j.Status = model.StatusRunning
	if err := w.store.UpdateJob(ctx, j); err != nil {
		log.Warn("mark job running", zap.Error(err))
	}

	result, runErr := w.run(ctx, j.Stream)
	if runErr != nil {
		log.Error("job failed", zap.String("stream", j.Stream), zap.Error(runErr))
		j.Status = model.StatusFailed
		j.Error = runErr.Error()
	} else {
		log.Info("job succeeded", zap.String("stream", j.Stream))
		j.Status = model.StatusSuccess
		j.Error = ""
	}
	if b, err := json.Marshal(result); err == nil {
		j.Result = string(b)
	}
	// the job context may be cancelled by now; the final state is still written
	if err := w.store.UpdateJob(context.WithoutCancel(ctx), j); err != nil {
		log.Warn("store job result", zap.Error(err))
	}
}

func (w *Worker) run(ctx context.Context, stream string) (any, error) {
	if stream == model.JobFull {
		rep := w.runner.RunFullSync(ctx)
		if !rep.OK {
			return rep, fmt.Errorf("%d of %d streams failed", failedStreams(rep), len(rep.PerStream))
		}
		return rep, nil
	}
	res, err := w.runner.RunStream(ctx, stream)
	return res, err
}

func failedStreams(rep syncer.Report) int {
	n := 0
	for _, s := range rep.PerStream {
		if !s.OK {
			n++
		}
	}
	return n
}
