package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"activityrewards/core/events"
)

func appliedEvent() events.RewardApplied {
	return events.RewardApplied{
		Slot:             "slot-1",
		Owner:            "alice",
		Activity:         "Check-in",
		NumTasks:         100,
		NumUsers:         50,
		ConsecutiveCount: 1,
		RewardAmount:     1_200_000_000,
	}
}

func TestDispatcherSignsPayload(t *testing.T) {
	var (
		mu        sync.Mutex
		body      []byte
		signature string
		eventType string
		delivery  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		body = data
		signature = r.Header.Get(HeaderSignature)
		eventType = r.Header.Get(HeaderEvent)
		delivery = r.Header.Get(HeaderDelivery)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	secret := []byte("secret")
	dispatcher, err := NewDispatcher(server.URL, secret)
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(appliedEvent())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return signature != ""
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, Verify(secret, body, signature))
	require.False(t, Verify([]byte("other"), body, signature))
	require.Equal(t, events.TypeRewardApplied, eventType)

	var payload Payload
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, events.TypeRewardApplied, payload.Type)
	require.Equal(t, delivery, payload.DeliveryID)
	require.Equal(t, "alice", payload.Attributes["owner"])
	require.Equal(t, "1200000000", payload.Attributes["reward"])
}

func TestDispatcherRetries(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(5, 10*time.Millisecond, 20*time.Millisecond))
	require.NoError(t, err)
	defer dispatcher.Close()

	require.NoError(t, dispatcher.Enqueue(appliedEvent()))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) >= 3 }, time.Second, 10*time.Millisecond)
	require.Zero(t, dispatcher.Failed())
}

func TestDispatcherGivesUp(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(2, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(appliedEvent())
	require.Eventually(t, func() bool { return dispatcher.Failed() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestDispatcherFiltersEventTypes(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithEventTypes(events.TypeRewardRejected))
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(appliedEvent())
	dispatcher.Emit(events.RewardRejected{Slot: "slot-1", Owner: "alice", Reason: "overflow"})
	require.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), received.Load())
}

func TestDispatcherDropsWhenClosed(t *testing.T) {
	dispatcher, err := NewDispatcher("http://127.0.0.1:1", []byte("secret"))
	require.NoError(t, err)
	dispatcher.Close()

	require.ErrorIs(t, dispatcher.Enqueue(appliedEvent()), ErrClosed)
	dispatcher.Emit(appliedEvent())
	require.Equal(t, uint64(1), dispatcher.Dropped())
}

func TestDispatcherCloseCountsAbandoned(t *testing.T) {
	release := make(chan struct{})
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	dispatcher, err := NewDispatcher(server.URL, []byte("secret"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, dispatcher.Enqueue(appliedEvent()))
	}
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, 5*time.Millisecond)

	dispatcher.Close()
	require.Equal(t, uint64(3), dispatcher.Failed())
	require.Zero(t, dispatcher.Dropped())
}

func TestNewDispatcherValidation(t *testing.T) {
	_, err := NewDispatcher("  ", []byte("secret"))
	require.ErrorIs(t, err, ErrEndpointRequired)
	_, err = NewDispatcher("http://example.invalid", nil)
	require.ErrorIs(t, err, ErrSecretRequired)
}

func TestNextBackoff(t *testing.T) {
	require.Equal(t, 4*time.Second, nextBackoff(2*time.Second, 30*time.Second))
	require.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
}
