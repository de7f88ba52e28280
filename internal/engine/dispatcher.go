package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eshagberg/payflow/internal/domain"
	"github.com/eshagberg/payflow/internal/store"
)

const (
	// DefaultWorkerCount is the size of the worker pool when none is configured.
	DefaultWorkerCount = 5

	// DefaultIdleBackoff bounds how long the dispatcher sleeps between queue
	// rechecks when idle. It also bounds worst-case submission-to-pickup
	// latency should a wake signal be missed.
	DefaultIdleBackoff = 10 * time.Millisecond
)

// Dispatcher drains the transfer queue into a fixed-size worker pool. Each
// worker runs the executor, records the outcome in the result store and, by
// doing so, wakes any synchronous caller blocked on that transfer id.
type Dispatcher struct {
	queue    *TransferQueue
	executor *Executor
	results  *store.ResultStore
	workers  int
	backoff  time.Duration
	log      *zap.Logger
}

func NewDispatcher(queue *TransferQueue, executor *Executor, results *store.ResultStore, workers int, backoff time.Duration, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if backoff <= 0 {
		backoff = DefaultIdleBackoff
	}
	return &Dispatcher{
		queue:    queue,
		executor: executor,
		results:  results,
		workers:  workers,
		backoff:  backoff,
		log:      log,
	}
}

// Run dispatches until ctx is cancelled. It hands each dequeued request to an
// idle worker and loops immediately without waiting for the execution to
// finish. Run returns only after all workers have drained their tasks.
func (d *Dispatcher) Run(ctx context.Context) {
	tasks := make(chan domain.TransferRequest)

	var wg sync.WaitGroup
	wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.worker(tasks, &wg)
	}
	d.log.Info("dispatcher started", zap.Int("workers", d.workers))

	for {
		req, ok := d.queue.Next(ctx, d.backoff)
		if !ok {
			break
		}
		tasks <- req
	}

	close(tasks)
	wg.Wait()
	d.log.Info("dispatcher stopped", zap.Int("abandoned", d.queue.Len()))
}

func (d *Dispatcher) worker(tasks <-chan domain.TransferRequest, wg *sync.WaitGroup) {
	defer wg.Done()
	for req := range tasks {
		workersBusy.Inc()
		start := time.Now()

		res := d.executor.Execute(req)
		d.results.Put(res)

		took := time.Since(start)
		executionDuration.Observe(took.Seconds())
		transfersExecuted.WithLabelValues(string(res.State)).Inc()
		workersBusy.Dec()

		d.log.Debug("transfer executed",
			zap.String("transfer_id", res.TransferID.String()),
			zap.String("state", string(res.State)),
			zap.Bool("async", req.Async),
			zap.Duration("took", took),
		)
	}
}
