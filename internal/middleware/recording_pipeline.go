package middleware

import (
	"context"
	"sync"
	"time"

	"EarnPulse/internal/domain/models"
	domrepo "EarnPulse/internal/domain/repository"
	"EarnPulse/pkg/logger"
)

// Proc is the minimal recorder interface the pipeline needs.
type Proc interface {
	ProcessBatch(ctx context.Context, events []*models.PredictionEvent) error
}

// RecordingPipeline sits between request handling and the recorder backend.
// Submit never blocks; a background worker batches events and retries
// failed flushes with capped exponential backoff.
type RecordingPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	log      *logger.Logger
	bufSize  int
	batchSz  int
	flushInt time.Duration
	attempts int
	bufCh    chan *models.PredictionEvent
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
	mu       sync.Mutex
}

type PipelineOption func(*RecordingPipeline)

// WithBufferSize sets how many events may wait for the worker.
func WithBufferSize(n int) PipelineOption {
	return func(p *RecordingPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatching sets the flush size and the max time an event waits in a partial batch.
func WithBatching(size int, interval time.Duration) PipelineOption {
	return func(p *RecordingPipeline) {
		if size > 0 {
			p.batchSz = size
		}
		if interval > 0 {
			p.flushInt = interval
		}
	}
}

func WithFlushAttempts(n int) PipelineOption {
	return func(p *RecordingPipeline) {
		if n > 0 {
			p.attempts = n
		}
	}
}

func NewRecordingPipeline(proc Proc, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *RecordingPipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &RecordingPipeline{
		proc:     proc,
		metrics:  metrics,
		log:      log,
		bufSize:  1000,
		batchSz:  50,
		flushInt: time.Second,
		attempts: 3,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PredictionEvent, p.bufSize)
	return p
}

// Submit enqueues e without blocking. It reports false when the buffer is full.
func (p *RecordingPipeline) Submit(e *models.PredictionEvent) bool {
	if e == nil {
		return true
	}
	select {
	case p.bufCh <- e:
		return true
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return false
	}
}

// Pending is the number of buffered events.
func (p *RecordingPipeline) Pending() int { return len(p.bufCh) }

// Start launches the flushing worker. A stopped pipeline may be started again.
func (p *RecordingPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(ctx, p.stopCh, p.done)
}

func (p *RecordingPipeline) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.flushInt)
	defer ticker.Stop()

	batch := make([]*models.PredictionEvent, 0, p.batchSz)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.flush(ctx, batch)
		batch = make([]*models.PredictionEvent, 0, p.batchSz)
	}

	for {
		select {
		case <-stopCh:
			for {
				select {
				case e := <-p.bufCh:
					batch = append(batch, e)
					if len(batch) >= p.batchSz {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case e := <-p.bufCh:
			batch = append(batch, e)
			if len(batch) >= p.batchSz {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (p *RecordingPipeline) flush(ctx context.Context, batch []*models.PredictionEvent) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := p.proc.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_flush")
		if attempt >= p.attempts {
			p.metrics.RecordError("pipeline_drop")
			p.log.Error("dropping prediction events",
				logger.Int("count", len(batch)),
				logger.Int("attempts", attempt),
				logger.Error(err),
			)
			return
		}
		p.log.Warn("recorder flush failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("backoff_ms", backoff),
			logger.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

// Stop drains the buffer and waits for the worker, or until ctx is done.
func (p *RecordingPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()
	close(stopCh)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
