package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/logger"
)

type recordingSender struct {
	mu     sync.Mutex
	bodies [][]byte
	fail   bool
}

func (r *recordingSender) send(_ context.Context, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	r.bodies = append(r.bodies, body)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func TestPublisher_FlushesOnClose(t *testing.T) {
	rec := &recordingSender{}
	p := newPublisher("q", 16, logger.Discard(), rec.send)
	go p.run()

	for i := 0; i < 3; i++ {
		p.Publish(context.Background(), New(EventMessageBroadcast, 1, map[string]interface{}{"n": i}))
	}
	require.NoError(t, p.Close())

	assert.Equal(t, 3, rec.count())
	var evt Event
	require.NoError(t, json.Unmarshal(rec.bodies[0], &evt))
	assert.Equal(t, EventMessageBroadcast, evt.Type)
	assert.Equal(t, uint(1), evt.ActorID)

	// after close publishing is a silent no-op
	p.Publish(context.Background(), New(EventMessageBroadcast, 1, nil))
}

func TestPublisher_FlushesFullBatchWithoutWaiting(t *testing.T) {
	rec := &recordingSender{}
	p := newPublisher("q", 64, logger.Discard(), rec.send)
	go p.run()
	defer p.Close()

	for i := 0; i < flushBatchSize; i++ {
		p.Publish(context.Background(), New(EventDonationStatusChanged, 2, nil))
	}
	assert.Eventually(t, func() bool { return rec.count() == flushBatchSize }, 500*time.Millisecond, 10*time.Millisecond)
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	rec := &recordingSender{}
	p := newPublisher("q", 1, logger.Discard(), rec.send)
	// worker not started: the second event cannot be buffered
	p.Publish(context.Background(), New(EventRegisteredForEvent, 1, nil))
	p.Publish(context.Background(), New(EventRegisteredForEvent, 1, nil))
	assert.Len(t, p.events, 1)
}

func TestPublisher_SendFailureIsSwallowed(t *testing.T) {
	rec := &recordingSender{fail: true}
	p := newPublisher("q", 4, logger.Discard(), rec.send)
	go p.run()
	p.Publish(context.Background(), New(EventContributionStatusChanged, 3, nil))
	require.NoError(t, p.Close())
	assert.Equal(t, 0, rec.count())
}

func TestPublisher_PublishAfterCloseDropsEvent(t *testing.T) {
	rec := &recordingSender{}
	p := newPublisher("q", 4, logger.Discard(), rec.send)
	go p.run()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), New(EventMessageBroadcast, 1, nil))
	})
	assert.Equal(t, 0, rec.count())
}

func TestPublisher_ConcurrentPublishAndClose(t *testing.T) {
	rec := &recordingSender{}
	p := newPublisher("q", 8, logger.Discard(), rec.send)
	go p.run()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Publish(context.Background(), New(EventMessageBroadcast, 1, nil))
			}
		}()
	}
	require.NoError(t, p.Close())
	wg.Wait()
	assert.LessOrEqual(t, rec.count(), 400)
}

type fakeChannel struct {
	mu        sync.Mutex
	closed    bool
	published int
	closes    int
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, _ amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return amqp.ErrClosed
	}
	f.published++
	return nil
}

func (f *fakeChannel) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closes++
	return nil
}

func TestPublisher_ReconnectsClosedChannel(t *testing.T) {
	stale := &fakeChannel{closed: true}
	fresh := &fakeChannel{}
	dials := 0

	p := newPublisher("q", 4, logger.Discard(), nil)
	p.ch = stale
	p.backoff = time.Millisecond
	p.dial = func() (io.Closer, brokerChannel, error) {
		dials++
		if dials == 1 {
			return nil, nil, errors.New("connection refused")
		}
		return io.NopCloser(nil), fresh, nil
	}

	require.NoError(t, p.publishAMQP(context.Background(), []byte(`{}`)))
	assert.Equal(t, 2, dials)
	assert.Equal(t, 1, stale.closes)
	assert.Equal(t, 1, fresh.published)

	// a healthy channel is reused without dialling
	require.NoError(t, p.publishAMQP(context.Background(), []byte(`{}`)))
	assert.Equal(t, 2, dials)
	assert.Equal(t, 2, fresh.published)
}

func TestPublisher_ReconnectGivesUpWithContext(t *testing.T) {
	p := newPublisher("q", 4, logger.Discard(), nil)
	p.ch = &fakeChannel{closed: true}
	p.backoff = time.Millisecond
	p.dial = func() (io.Closer, brokerChannel, error) {
		return nil, nil, errors.New("connection refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.publishAMQP(ctx, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconnect broker")
	assert.Nil(t, p.ch)
}

func TestDispatch(t *testing.T) {
	var got Event
	handle := func(_ context.Context, evt Event) error {
		got = evt
		return nil
	}

	body, _ := json.Marshal(New(EventRegisteredForEvent, 9, map[string]interface{}{"event_id": 4}))
	require.NoError(t, Dispatch(context.Background(), body, handle))
	assert.Equal(t, EventRegisteredForEvent, got.Type)

	assert.Error(t, Dispatch(context.Background(), []byte("not json"), handle))
	assert.Error(t, Dispatch(context.Background(), []byte(`{"payload":{}}`), handle))
	assert.NoError(t, Dispatch(context.Background(), body, LogHandler(logger.Discard())))
}
