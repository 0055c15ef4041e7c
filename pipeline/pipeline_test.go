package pipeline

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

type decoded struct {
	id    int
	title string
}

func decodeTitle(id int, row Row, tally *Tally) decoded {
	if row.Get("Title") == "" {
		tally.Add("title_missing")
	}
	return decoded{id: id, title: row.Get("Title")}
}

func TestPipelinePreservesSubmissionOrder(t *testing.T) {
	p := NewPipeline(context.Background(), decodeTitle)
	p.Start(8)

	for i := 0; i < 1000; i++ {
		if err := p.Process(Row{"Title": "Book " + strconv.Itoa(i)}); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	results := p.Results()
	if len(results) != 1000 {
		t.Fatalf("decoded records = %d, want 1000", len(results))
	}
	for i, record := range results {
		if record.id != i {
			t.Fatalf("record %d carries id %d", i, record.id)
		}
		if want := "Book " + strconv.Itoa(i); record.title != want {
			t.Fatalf("record %d title = %q, want %q", i, record.title, want)
		}
	}
}

func TestPipelineCountsFallbacks(t *testing.T) {
	p := NewPipeline(context.Background(), decodeTitle)
	p.Start(2)

	if err := p.Process(Row{"Title": "A"}, Row{}, Row{"Title": ""}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := p.Fallbacks()["title_missing"]; got != 2 {
		t.Fatalf("title_missing = %d, want 2", got)
	}

	metrics := p.GetMetrics()
	if decodedRows, ok := metrics["decoded_rows"].(int64); !ok || decodedRows != 3 {
		t.Fatalf("decoded_rows = %v, want 3", metrics["decoded_rows"])
	}
	if submitted, ok := metrics["submitted_rows"].(int64); !ok || submitted != 3 {
		t.Fatalf("submitted_rows = %v, want 3", metrics["submitted_rows"])
	}
}

func TestPipelineRejectsAfterClose(t *testing.T) {
	p := NewPipeline(context.Background(), decodeTitle)
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := p.Process(Row{"Title": "late"}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
	if len(p.Results()) != 0 {
		t.Fatalf("expected no results")
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPipeline(ctx, decodeTitle)
	p.Start(1)
	cancel()

	deadline := time.Now().Add(time.Second)
	for p.Err() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Process(Row{"Title": "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from Process, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from Close, got %v", err)
	}
}

func TestPipelineEmptyProcess(t *testing.T) {
	p := NewPipeline(context.Background(), decodeTitle)
	p.Start(0)
	if err := p.Process(); err != nil {
		t.Fatalf("empty process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := p.Results(); len(got) != 0 {
		t.Fatalf("results = %v, want none", got)
	}
}
