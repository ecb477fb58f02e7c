package rpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"activityrewards/core/events"
	"activityrewards/core/types"
)

func TestHubFiltersAndDrops(t *testing.T) {
	hub := NewHub(1)
	all, cancelAll := hub.Subscribe("")
	defer cancelAll()
	bobs, cancelBob := hub.Subscribe("bob")
	require.Equal(t, 2, hub.Subscribers())

	hub.Emit(events.RewardApplied{Owner: "alice", Activity: "Check-in", RewardAmount: 1})
	hub.Emit(events.RewardRejected{Owner: "alice", Reason: "overflow"})
	hub.Emit(events.RewardApplied{Owner: "alice", Activity: "Check-in", RewardAmount: 2})

	evt := <-all
	require.Equal(t, "1", evt.Attr("reward"))
	require.Equal(t, uint64(1), hub.Dropped())
	select {
	case evt := <-bobs:
		t.Fatalf("unexpected event for bob: %+v", evt)
	default:
	}

	cancelBob()
	cancelBob()
	require.Equal(t, 1, hub.Subscribers())
}

func TestRewardsWebsocketStream(t *testing.T) {
	srv, hub := newTestServer(t, ServerConfig{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rewards?owner=alice"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, resp := callRPC(t, srv.Handler(), "", "rewards_apply", map[string]interface{}{
		"user": "alice", "activity": "Stake SOL", "numTasks": 1, "numUsers": 5,
	})
	require.Nil(t, resp.Error)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, events.TypeRewardApplied, evt.Type)
	require.Equal(t, "alice", evt.Attr("owner"))
	require.Equal(t, "9000", evt.Attr("multiplier"))
	require.Equal(t, "9000000000", evt.Attr("reward"))
}
