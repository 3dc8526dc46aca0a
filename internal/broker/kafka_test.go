package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"phone-storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader replays queued messages, then blocks until ctx is done
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestProducerPublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: zap.NewNop()}

	event := &models.BrandUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeBrandUpdated),
		Brand:     models.Brand{ID: 1, Name: "Apple"},
	}
	require.NoError(t, p.PublishEvent(context.Background(), "brand-1", event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "brand-1", string(w.msgs[0].Key))

	var decoded models.BrandUpdatedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "Apple", decoded.Brand.Name)
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	r := &fakeReader{
		fetchErrs: []error{errors.New("broker not available")},
		queue:     []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}},
	}
	c := &Consumer{reader: r, topic: "storefront.sync-events", retryDelay: time.Millisecond, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled []int64
	var mu sync.Mutex
	done := make(chan error, 1)
	go func() {
		done <- c.StartConsuming(ctx, func(_ context.Context, msg kafka.Message) error {
			mu.Lock()
			handled = append(handled, msg.Offset)
			mu.Unlock()
			if msg.Offset == 2 {
				return errors.New("handler failed")
			}
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		return len(r.commits()) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []int64{1, 3}, r.commits())
	mu.Lock()
	assert.Equal(t, []int64{1, 2, 3}, handled)
	mu.Unlock()
}
