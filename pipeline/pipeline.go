package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// DecodeFunc converts the row at position id into a record. Recoverable cell
// problems are reported through tally instead of failing the row.
type DecodeFunc[T any] func(id int, row Row, tally *Tally) T

type job struct {
	id  int
	row Row
}

// Pipeline decodes rows on a worker pool. Results keep the order in which
// rows were submitted, so a record's position is its submission index.
type Pipeline[T any] struct {
	decode DecodeFunc[T]
	jobCh  chan job

	wg sync.WaitGroup

	resultsMu sync.Mutex
	results   []T

	tally *Tally

	mu     sync.Mutex // guards closed/err/next
	closed bool
	err    error
	next   int

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a modest in-memory buffer. Cancelling
// ctx stops further submissions.
func NewPipeline[T any](ctx context.Context, decode DecodeFunc[T]) *Pipeline[T] {
	p := &Pipeline[T]{
		decode:   decode,
		jobCh:    make(chan job, 512),
		tally:    NewTally(),
		shutdown: make(chan struct{}),
	}
	go func() {
		select {
		case <-ctx.Done():
			p.setErr(ctx.Err())
		case <-p.shutdown:
		}
	}()
	return p
}

// Start launches worker goroutines.
func (p *Pipeline[T]) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues rows for decoding, assigning each the next position.
func (p *Pipeline[T]) Process(rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		id, err := p.reserve()
		if err != nil {
			return err
		}
		if err := p.enqueue(job{id: id, row: row}); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline[T]) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.closeOnce.Do(func() {
		close(p.jobCh)
	})

	p.wg.Wait()
	p.signalShutdown()
	return p.Err()
}

// Results returns the decoded records in submission order. It is only
// meaningful after Close returned nil.
func (p *Pipeline[T]) Results() []T {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	out := make([]T, len(p.results))
	copy(out, p.results)
	return out
}

// Err returns the first error encountered during processing.
func (p *Pipeline[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Fallbacks returns how often each recoverable cell problem occurred.
func (p *Pipeline[T]) Fallbacks() map[string]int {
	return p.tally.Snapshot()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline[T]) GetMetrics() map[string]interface{} {
	p.mu.Lock()
	submitted := p.next
	p.mu.Unlock()

	return map[string]interface{}{
		"submitted_rows": int64(submitted),
		"decoded_rows":   p.tally.Decoded(),
		"fallbacks":      p.tally.Snapshot(),
	}
}

// StartMetricsReporting emits periodic progress logs until the pipeline closes.
func (p *Pipeline[T]) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				slog.Debug("decode progress",
					slog.Int64("decoded", metrics["decoded_rows"].(int64)),
					slog.Int("fallback_kinds", len(metrics["fallbacks"].(map[string]int))),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline[T]) worker() {
	defer p.wg.Done()

	for j := range p.jobCh {
		record := p.decode(j.id, j.row, p.tally)
		p.store(j.id, record)
		p.tally.incrementDecoded()
	}
}

func (p *Pipeline[T]) store(id int, record T) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	if id >= len(p.results) {
		grown := make([]T, id+1, max(2*len(p.results), id+1))
		copy(grown, p.results)
		p.results = grown
	}
	p.results[id] = record
}

func (p *Pipeline[T]) reserve() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	if p.closed {
		return 0, ErrPipelineClosed
	}
	id := p.next
	p.next++
	return id, nil
}

func (p *Pipeline[T]) enqueue(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.jobCh <- j:
		return nil
	}
}

func (p *Pipeline[T]) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
}

func (p *Pipeline[T]) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

// Tally counts decoded rows and recoverable cell problems by kind. It is
// safe for concurrent use.
type Tally struct {
	mu        sync.Mutex
	decoded   int64
	fallbacks map[string]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{fallbacks: make(map[string]int)}
}

// Add records one occurrence of kind.
func (t *Tally) Add(kind string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.fallbacks[kind]++
	t.mu.Unlock()
}

// Decoded reports how many rows have been decoded.
func (t *Tally) Decoded() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.decoded
}

// Snapshot copies the fallback counters.
func (t *Tally) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.fallbacks))
	for k, v := range t.fallbacks {
		out[k] = v
	}
	return out
}

func (t *Tally) incrementDecoded() {
	t.mu.Lock()
	t.decoded++
	t.mu.Unlock()
}
