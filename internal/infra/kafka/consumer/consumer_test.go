package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

type fakeClient struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeClient) Fetch(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeClient) Commit(_ context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg.Offset)
	return nil
}

func (f *fakeClient) Close() error { return nil }

// scriptedHandler fails the first failures[offset] attempts of each message.
type scriptedHandler struct {
	failures map[int64]int
	attempts map[int64]int
}

func (h *scriptedHandler) Handle(_ context.Context, msg kafka.Message) error {
	if h.attempts == nil {
		h.attempts = map[int64]int{}
	}
	h.attempts[msg.Offset]++
	if h.attempts[msg.Offset] <= h.failures[msg.Offset] {
		return errors.New("storage unavailable")
	}
	return nil
}

type fakeDeadLetter struct {
	forwarded []int64
	err       error
}

func (d *fakeDeadLetter) Forward(_ context.Context, msg kafka.Message) error {
	if d.err != nil {
		return d.err
	}
	d.forwarded = append(d.forwarded, msg.Offset)
	return nil
}

var strategy = retry.Strategy{Attempts: 2, Backoff: 1}

func messages(offsets ...int64) []kafka.Message {
	out := make([]kafka.Message, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, kafka.Message{Offset: o, Value: []byte(`{}`)})
	}
	return out
}

func setup(h notificationHandler, offsets []int64, opts ...Option) (*Consumer, *fakeClient, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	cl := &fakeClient{queue: messages(offsets...), cancel: cancel}
	return newConsumer(cl, "notifications", strategy, h, opts...), cl, ctx
}

func TestConsumeCommitsHandledMessages(t *testing.T) {
	c, cl, ctx := setup(&scriptedHandler{}, []int64{1, 2, 3})

	if err := c.Consume(ctx); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if len(cl.committed) != 3 || cl.committed[2] != 3 {
		t.Fatalf("expected offsets 1..3 committed, got %v", cl.committed)
	}
}

func TestConsumeRetriesTransientFailures(t *testing.T) {
	h := &scriptedHandler{failures: map[int64]int{1: 1}}
	c, cl, ctx := setup(h, []int64{1})

	if err := c.Consume(ctx); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if h.attempts[1] != 2 {
		t.Fatalf("expected two attempts, got %d", h.attempts[1])
	}
	if len(cl.committed) != 1 {
		t.Fatalf("expected the message to be committed after the retry, got %v", cl.committed)
	}
}

func TestConsumeNeverCommitsPastAFailedMessage(t *testing.T) {
	h := &scriptedHandler{failures: map[int64]int{2: 10}}
	c, cl, ctx := setup(h, []int64{1, 2, 3})

	err := c.Consume(ctx)
	if !errors.Is(err, ErrUnhandled) {
		t.Fatalf("expected ErrUnhandled, got %v", err)
	}
	if len(cl.committed) != 1 || cl.committed[0] != 1 {
		t.Fatalf("expected only offset 1 committed, got %v", cl.committed)
	}
	if h.attempts[3] != 0 {
		t.Fatal("expected the consumer to stop before handling later messages")
	}
}

func TestConsumeForwardsFailedMessagesToDeadLetter(t *testing.T) {
	h := &scriptedHandler{failures: map[int64]int{2: 10}}
	dl := &fakeDeadLetter{}
	c, cl, ctx := setup(h, []int64{1, 2, 3}, WithDeadLetter(dl))

	if err := c.Consume(ctx); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if len(dl.forwarded) != 1 || dl.forwarded[0] != 2 {
		t.Fatalf("expected offset 2 forwarded, got %v", dl.forwarded)
	}
	if len(cl.committed) != 3 {
		t.Fatalf("expected all offsets committed once parked, got %v", cl.committed)
	}
}

func TestConsumeStopsWhenDeadLetterFails(t *testing.T) {
	h := &scriptedHandler{failures: map[int64]int{1: 10}}
	dl := &fakeDeadLetter{err: errors.New("broker down")}
	c, cl, ctx := setup(h, []int64{1, 2}, WithDeadLetter(dl))

	if err := c.Consume(ctx); !errors.Is(err, ErrUnhandled) {
		t.Fatalf("expected ErrUnhandled, got %v", err)
	}
	if len(cl.committed) != 0 {
		t.Fatalf("expected nothing committed, got %v", cl.committed)
	}
}
