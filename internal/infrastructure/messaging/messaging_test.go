package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryBus_DeliversToTypeSubscriber(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var got shared.Event
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		got = e
		return nil
	}))

	event := shared.NewCycleResetEvent("2025-08-25")
	require.NoError(t, bus.Publish(event))

	require.NotNil(t, got)
	assert.Equal(t, shared.EventCycleReset, got.EventType())
}

func TestInMemoryBus_TypeFilter(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewProgressLoggedEvent(42, "2025-08-25", 1, 3, "")))
	assert.Zero(t, calls)
}

func TestInMemoryBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		types = append(types, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))
	require.NoError(t, bus.Publish(shared.NewProgressLoggedEvent(42, "2025-08-25", 1, 3, "")))

	assert.Equal(t, []shared.EventType{shared.EventCycleReset, shared.EventProgressLogged}, types)
}

func TestInMemoryBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	second := false
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		second = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))
	assert.True(t, second)
}

func TestInMemoryBus_AsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)
	defer bus.Close()

	var delivered atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		delivered.Add(1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))
	}

	require.Eventually(t, func() bool {
		return delivered.Load() == 5
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryBus_RejectsAfterClose(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryBus_NilArguments(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCycleReset, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// fakeRedisClient is an in-process stand-in for the Pub/Sub transport.
type fakeRedisClient struct {
	mu        sync.Mutex
	published []string
	incoming  chan RedisMessage
	pubErr    error
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{incoming: make(chan RedisMessage, 16)}
}

func (c *fakeRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, message.(string))
	return nil
}

func (c *fakeRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	return c.incoming, nil
}

func (c *fakeRedisClient) Close() error { return nil }

func (c *fakeRedisClient) lastPublished() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.published) == 0 {
		return ""
	}
	return c.published[len(c.published)-1]
}

func newTestRedisBus(t *testing.T, client *fakeRedisClient, instanceID string) *RedisEventBus {
	t.Helper()

	local := DefaultInMemoryEventBusConfig()
	local.AsyncMode = false

	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     instanceID,
		LocalBusConfig: local,
	})
	require.NoError(t, err)
	return bus
}

func TestRedisBus_PublishWritesEnvelopeAndDeliversLocally(t *testing.T) {
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client, "instance-a")
	defer bus.Close()

	local := 0
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		local++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))

	assert.Equal(t, 1, local)

	var envelope wireEnvelope
	require.NoError(t, json.Unmarshal([]byte(client.lastPublished()), &envelope))
	assert.Equal(t, "instance-a", envelope.InstanceID)
	assert.Equal(t, shared.EventCycleReset, envelope.EventType)
	assert.Equal(t, "2025-08-25", envelope.Payload["week_key"])
}

func TestRedisBus_RedisFailureStillDeliversLocally(t *testing.T) {
	client := newFakeRedisClient()
	client.pubErr = errors.New("connection refused")
	bus := newTestRedisBus(t, client, "instance-a")
	defer bus.Close()

	local := 0
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		local++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))
	assert.Equal(t, 1, local)
}

func TestRedisBus_IgnoresOwnMessages(t *testing.T) {
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client, "instance-a")
	defer bus.Close()

	var calls atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		calls.Add(1)
		return nil
	}))

	envelope, err := json.Marshal(wireEnvelope{
		InstanceID: "instance-a",
		EventType:  shared.EventCycleReset,
		OccurredAt: time.Now(),
		Payload:    map[string]interface{}{"week_key": "2025-08-25"},
	})
	require.NoError(t, err)
	client.incoming <- RedisMessage{Channel: DefaultChannelName, Payload: string(envelope)}

	// Give the subscription loop a beat to process.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestRedisBus_DeliversRemoteMessages(t *testing.T) {
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client, "instance-a")
	defer bus.Close()

	var gotWeek atomic.Value
	require.NoError(t, bus.Subscribe(shared.EventCycleReset, func(e shared.Event) error {
		if week, ok := e.Payload()["week_key"].(string); ok {
			gotWeek.Store(week)
		}
		return nil
	}))

	envelope, err := json.Marshal(wireEnvelope{
		InstanceID: "instance-b",
		EventType:  shared.EventCycleReset,
		OccurredAt: time.Now(),
		Payload:    map[string]interface{}{"week_key": "2025-08-25"},
	})
	require.NoError(t, err)
	client.incoming <- RedisMessage{Channel: DefaultChannelName, Payload: string(envelope)}

	require.Eventually(t, func() bool {
		week, _ := gotWeek.Load().(string)
		return week == "2025-08-25"
	}, time.Second, 10*time.Millisecond)
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

func newTestDispatcher(bus shared.EventBus, dlqSize int) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		EventBus: bus,
		RetryConfig: RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
		DeadLetterQueueSize: dlqSize,
	})
}

func TestDispatcher_RoutesBusEventsToHandlers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	d := newTestDispatcher(bus, 0)
	defer d.Stop()

	var calls atomic.Int32
	require.NoError(t, d.RegisterSync(shared.EventCycleReset, "counter", func(e shared.Event) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(shared.NewCycleResetEvent("2025-08-25")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatcher_RequiresHandlerName(t *testing.T) {
	d := newTestDispatcher(syncBus(), 0)
	defer d.Stop()

	err := d.RegisterHandler(shared.EventCycleReset, HandlerRegistration{
		Handler: func(e shared.Event) error { return nil },
	})
	assert.Error(t, err)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	d := newTestDispatcher(syncBus(), 0)
	defer d.Stop()

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventCycleReset, "flaky", func(e shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, d.Dispatch(shared.NewCycleResetEvent("2025-08-25")))
	assert.Equal(t, 3, attempts)
}

func TestDispatcher_ExhaustedRetriesGoToDeadLetterQueue(t *testing.T) {
	d := newTestDispatcher(syncBus(), 10)
	defer d.Stop()

	require.NoError(t, d.RegisterSync(shared.EventCycleReset, "doomed", func(e shared.Event) error {
		return errors.New("permanent failure")
	}))

	err := d.Dispatch(shared.NewCycleResetEvent("2025-08-25"))
	require.Error(t, err)

	dlq := d.DeadLetterQueue()
	require.NotNil(t, dlq)
	require.Equal(t, 1, dlq.Size())

	entry := dlq.Entries()[0]
	assert.Equal(t, "doomed", entry.HandlerName)
	assert.Equal(t, 3, entry.Attempts) // MaxRetries 2 means 3 attempts total
	assert.ErrorContains(t, entry.Error, "permanent failure")
}

func TestDispatcher_RecoveryMiddlewareTurnsPanicIntoError(t *testing.T) {
	d := newTestDispatcher(syncBus(), 10)
	defer d.Stop()

	d.Use(RecoveryMiddleware(testLogger()))

	require.NoError(t, d.RegisterHandler(shared.EventCycleReset, HandlerRegistration{
		Name:       "panicky",
		MaxRetries: 1,
		Handler: func(e shared.Event) error {
			panic("oops")
		},
	}))

	err := d.Dispatch(shared.NewCycleResetEvent("2025-08-25"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestDispatcher_HandlerTimeout(t *testing.T) {
	d := newTestDispatcher(syncBus(), 0)
	defer d.Stop()

	require.NoError(t, d.RegisterHandler(shared.EventCycleReset, HandlerRegistration{
		Name:       "slow",
		MaxRetries: 1,
		Timeout:    10 * time.Millisecond,
		Handler: func(e shared.Event) error {
			time.Sleep(200 * time.Millisecond)
			return nil
		},
	}))

	err := d.Dispatch(shared.NewCycleResetEvent("2025-08-25"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestDeadLetterQueue_EvictsOldest(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetterEntry{HandlerName: "a"})
	q.Add(DeadLetterEntry{HandlerName: "b"})
	q.Add(DeadLetterEntry{HandlerName: "c"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].HandlerName)
	assert.Equal(t, "c", entries[1].HandlerName)

	q.Clear()
	assert.Zero(t, q.Size())
}
