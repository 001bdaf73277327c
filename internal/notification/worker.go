package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/metrics"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"

	log "github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 1 * time.Second
	defaultBatchSize    = 50
	defaultBackoff      = 2 * time.Second
	defaultStaleAfter   = 5 * time.Minute
	maxBackoff          = time.Hour
)

// エラーを返すとリトライ。Permanentで包めば即failed_jobsへ
type Handler interface {
	Handle(ctx context.Context, payload []byte) error
}

type HandlerFunc func(ctx context.Context, payload []byte) error

func (f HandlerFunc) Handle(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// リトライしないエラーにする
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

type WorkerOptions struct {
	Logger       *log.Entry
	Queue        string
	PollInterval time.Duration
	BatchSize    int
	Backoff      time.Duration
	StaleAfter   time.Duration
	Now          func() time.Time
}

type Option func(*WorkerOptions)

func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

func WithQueue(name string) Option {
	return func(opts *WorkerOptions) {
		opts.Queue = name
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// n回目のリトライは base*2^(n-1) 待つ
func WithBackoff(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.Backoff = delay
	}
}

// 予約がこれより古いジョブは途中で落ちたとみなして戻す
func WithStaleAfter(d time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.StaleAfter = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(opts *WorkerOptions) {
		opts.Now = now
	}
}

type Worker struct {
	jobs         repo.JobRepository
	handlers     map[string]Handler
	logger       *log.Entry
	queue        string
	pollInterval time.Duration
	batchSize    int
	backoff      time.Duration
	staleAfter   time.Duration
	now          func() time.Time
}

func NewWorker(jobs repo.JobRepository, options ...Option) *Worker {
	opts := WorkerOptions{
		Queue:        DefaultQueue,
		PollInterval: defaultPollInterval,
		BatchSize:    defaultBatchSize,
		Backoff:      defaultBackoff,
		StaleAfter:   defaultStaleAfter,
		Now:          time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "queue-worker")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Worker{
		jobs:         jobs,
		handlers:     map[string]Handler{},
		logger:       logger,
		queue:        opts.Queue,
		pollInterval: opts.PollInterval,
		batchSize:    opts.BatchSize,
		backoff:      opts.Backoff,
		staleAfter:   opts.StaleAfter,
		now:          opts.Now,
	}
}

// Runの前に登録すること
func (w *Worker) Register(jobType string, h Handler) {
	w.handlers[jobType] = h
}

// ctxがキャンセルされるまでポーリングする
func (w *Worker) Run(ctx context.Context) {
	if w.jobs == nil {
		w.logger.Warn("queue worker is disabled: job repository is nil")
		return
	}

	w.logger.WithField("queue", w.queue).Info("queue worker started")
	defer w.logger.WithField("queue", w.queue).Info("queue worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// 1周分の処理。処理した件数を返す
func (w *Worker) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	now := w.now()
	if n, err := w.jobs.ReleaseStale(ctx, w.queue, now.Add(-w.staleAfter)); err != nil {
		w.logger.WithError(err).Warn("failed to release stale jobs")
	} else if n > 0 {
		w.logger.WithField("count", n).Warn("released stale job reservations")
	}

	jobs, err := w.jobs.Reserve(ctx, w.queue, now, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to reserve jobs")
		return 0
	}

	handled := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			//残りの予約はReleaseStaleで戻る
			break
		}
		w.process(ctx, job)
		handled++
	}

	w.refreshBacklogMetrics(ctx)
	return handled
}

func (w *Worker) process(ctx context.Context, job model.Job) {
	logger := w.logger.WithFields(log.Fields{
		"job_id":   job.ID,
		"job_type": job.Type,
		"attempt":  job.Attempts + 1,
	})

	start := time.Now()
	err := w.dispatch(ctx, job)
	metrics.JobDuration.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.JobsProcessed.WithLabelValues(job.Type, "succeeded").Inc()
		if delErr := w.jobs.Delete(ctx, job.ID); delErr != nil {
			//もう一度実行される（at-least-once）
			logger.WithError(delErr).Warn("failed to delete finished job")
		}
		return
	}

	attempts := job.Attempts + 1
	if !isPermanent(err) && attempts < job.MaxAttempts {
		delay := w.retryBackoff(attempts)
		if relErr := w.jobs.Release(ctx, job.ID, attempts, w.now().Add(delay), err.Error()); relErr != nil {
			logger.WithError(relErr).Warn("failed to release job for retry")
			return
		}
		metrics.JobsProcessed.WithLabelValues(job.Type, "retried").Inc()
		logger.WithError(err).WithField("retry_in", delay.String()).Warn("job failed, will retry")
		return
	}

	metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
	logger.WithError(err).WithField("payload", job.Payload).Error("job failed permanently")
	if failErr := w.jobs.Fail(ctx, job, err.Error(), w.now()); failErr != nil {
		logger.WithError(failErr).Warn("failed to record failed job")
	}
}

func (w *Worker) dispatch(ctx context.Context, job model.Job) (err error) {
	h, ok := w.handlers[job.Type]
	if !ok {
		return Permanent(fmt.Errorf("no handler registered for job type %q", job.Type))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return h.Handle(ctx, []byte(job.Payload))
}

func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.backoff <= 0 {
		return 0
	}
	delay := w.backoff
	for i := 1; i < attempt; i++ {
		if delay >= maxBackoff/2 {
			return maxBackoff
		}
		delay *= 2
	}
	return delay
}

func (w *Worker) refreshBacklogMetrics(ctx context.Context) {
	n, err := w.jobs.Pending(ctx, w.queue)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect queue backlog")
		return
	}
	metrics.QueuePending.Set(float64(n))
}
