package clicks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-shortlink/core"
)

type countingSink struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	block  chan struct{}
}

func newCountingSink() *countingSink {
	return &countingSink{counts: map[string]int{}}
}

func (s *countingSink) IncrementClickCount(_ context.Context, id string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.counts[id]++
	return nil
}

func (s *countingSink) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[id]
}

func TestRecorder_AppliesQueuedEvents(t *testing.T) {
	sink := newCountingSink()
	recorder := NewRecorder(sink)

	for i := 0; i < 5; i++ {
		recorder.Record(core.ClickEvent{LinkID: "link-1", TenantID: "t1", OccurredAt: time.Now()})
	}
	recorder.Close()

	if got := sink.count("link-1"); got != 5 {
		t.Fatalf("expected 5 applied clicks, got %d", got)
	}
	if recorder.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", recorder.Dropped())
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	sink := newCountingSink()
	sink.block = make(chan struct{})
	recorder := NewRecorder(sink, WithQueueSize(1))

	// First event parks in the worker, second fills the queue, the rest drop.
	for i := 0; i < 10; i++ {
		recorder.Record(core.ClickEvent{LinkID: "link-1", TenantID: "t1"})
	}
	if recorder.Dropped() == 0 {
		t.Fatalf("expected drops under a full queue")
	}

	close(sink.block)
	recorder.Close()
	if got := sink.count("link-1"); got == 0 {
		t.Fatalf("expected queued events applied after unblock")
	}
}

func TestRecorder_SinkErrorsDoNotEscape(t *testing.T) {
	sink := newCountingSink()
	sink.err = errors.New("db down")
	recorder := NewRecorder(sink)

	recorder.Record(core.ClickEvent{LinkID: "link-1", TenantID: "t1"})
	recorder.Close()
	// No panic and no error surfaced is the contract.
}

func TestRecorder_IgnoresEmptyLinkID(t *testing.T) {
	sink := newCountingSink()
	recorder := NewRecorder(sink)

	recorder.Record(core.ClickEvent{TenantID: "t1"})
	recorder.Close()

	if len(sink.counts) != 0 {
		t.Fatalf("expected no applies for empty link id")
	}
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	recorder := NewRecorder(newCountingSink())
	recorder.Close()
	recorder.Close()
}
