package natsbus

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"activityrewards/core/events"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject: subject, data: append([]byte(nil), data...)})
	return nil
}

func TestPublisherSubjects(t *testing.T) {
	conn := &fakeConn{}
	pub, err := NewPublisher(conn, "rewards.", nil)
	require.NoError(t, err)

	pub.Emit(events.RewardApplied{Slot: "s1", Owner: "alice", Activity: "Check-in", ConsecutiveCount: 1, RewardAmount: 10})
	pub.Emit(events.RewardRejected{Slot: "s1", Owner: "alice", Activity: "Check-in", Reason: "overflow"})

	require.Len(t, conn.msgs, 2)
	require.Equal(t, "rewards.applied", conn.msgs[0].subject)
	require.Equal(t, "rewards.rejected", conn.msgs[1].subject)
	require.Equal(t, uint64(2), pub.Published())

	var msg Message
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &msg))
	require.Equal(t, events.TypeRewardApplied, msg.Type)
	require.Equal(t, "alice", msg.Attributes["owner"])
	require.Equal(t, "10", msg.Attributes["reward"])
}

func TestPublisherDefaultPrefix(t *testing.T) {
	pub, err := NewPublisher(&fakeConn{}, "  ", nil)
	require.NoError(t, err)
	require.Equal(t, "rewards.applied", pub.Subject(events.TypeRewardApplied))

	custom, err := NewPublisher(&fakeConn{}, "ops.ledger", nil)
	require.NoError(t, err)
	require.Equal(t, "ops.ledger.rejected", custom.Subject(events.TypeRewardRejected))
}

func TestPublisherCountsFailures(t *testing.T) {
	pub, err := NewPublisher(&fakeConn{err: errors.New("nats: connection closed")}, "", nil)
	require.NoError(t, err)
	pub.Emit(events.RewardApplied{Owner: "alice"})
	require.Equal(t, uint64(1), pub.Failed())
	require.Zero(t, pub.Published())
}

func TestNewPublisherRequiresConn(t *testing.T) {
	_, err := NewPublisher(nil, "", nil)
	require.Error(t, err)
	_, err = Connect("", "", "rewardsd", nil)
	require.Error(t, err)
}
