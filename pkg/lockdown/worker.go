package lockdown

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/metrics"
)

// Worker consumes notification jobs from a buffered channel so the
// request path never waits for mail rendering or recipient lookups.
type Worker struct {
	notifier *Notifier
	jobs     chan NotificationJob
	log      *zap.SugaredLogger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewWorker(notifier *Notifier, queueSize int, log *zap.SugaredLogger) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		notifier: notifier,
		jobs:     make(chan NotificationJob, queueSize),
		log:      log.Named("notify-worker"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins consuming jobs in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("Notification worker started")
}

func (w *Worker) run() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorw("panic in notification worker recovered", "panic", r)
			w.wg.Add(1)
			go w.run()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Notification worker shutting down")
			return
		case job := <-w.jobs:
			w.notifier.Run(w.ctx, job)
		}
	}
}

// Submit enqueues a job without blocking. A full queue drops the job with
// a warning, the lockdown itself has already been applied.
func (w *Worker) Submit(job NotificationJob) bool {
	select {
	case w.jobs <- job:
		metrics.NotificationJobsQueued.Inc()
		return true
	default:
		metrics.NotificationJobsDropped.Inc()
		w.log.Warnw("Notification job queue full, dropping job",
			"affectedUserID", job.AffectedUserID)
		return false
	}
}

// Stop shuts the worker down, waiting for the in-flight job up to the
// context deadline.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.log.Warn("Notification worker shutdown timeout")
		return ctx.Err()
	}
}
