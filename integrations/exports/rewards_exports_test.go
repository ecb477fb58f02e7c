package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
)

func sampleEntries() []ledger.SlotEntry {
	return []ledger.SlotEntry{
		{Slot: "b-slot", Entry: &rewards.Entry{
			Owner: "bob", Activity: rewards.ActivityCastVote, NumTasks: 7, NumUsers: 2,
			ConsecutiveCount: 5, RewardAmount: 750_000_000, Timestamp: 1_700_000_100,
		}},
		{Slot: "skipped"},
		{Slot: "a-slot", Entry: &rewards.Entry{
			Owner: "alice", Activity: rewards.ActivityCheckIn, NumTasks: 100, NumUsers: 50,
			ConsecutiveCount: 1, RewardAmount: 1_200_000_000, Timestamp: 1_700_000_000,
		}},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func requireChecksum(t *testing.T, data []byte, sum string) {
	t.Helper()
	digest := sha256.Sum256(data)
	require.Equal(t, hex.EncodeToString(digest[:]), sum)
}

func TestRewardsCSV(t *testing.T) {
	data, sum, err := RewardsCSV(sampleEntries())
	require.NoError(t, err)
	requireChecksum(t, data, sum)
	newGoldie(t).Assert(t, "rewards.csv", data)
}

func TestRewardsJSONL(t *testing.T) {
	data, sum, err := RewardsJSONL(sampleEntries())
	require.NoError(t, err)
	requireChecksum(t, data, sum)
	newGoldie(t).Assert(t, "rewards.jsonl", data)
}

func TestRewardsParquetRoundTrip(t *testing.T) {
	data, sum, err := RewardsParquet(sampleEntries())
	require.NoError(t, err)
	requireChecksum(t, data, sum)

	pf := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(pf, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]parquetRow, 2)
	require.NoError(t, pr.Read(&rows))
	require.Equal(t, "a-slot", rows[0].Slot)
	require.Equal(t, "1200000000", rows[0].RewardUnits)
	require.Equal(t, int64(5), rows[1].ConsecutiveCount)
	require.Equal(t, "Cast a Vote", rows[1].Activity)
}

func TestEncodeAndWrite(t *testing.T) {
	for _, raw := range []string{"CSV", "jsonl", "ndjson", "Parquet"} {
		format, err := ParseFormat(raw)
		require.NoError(t, err)
		out := &bytes.Buffer{}
		sum, err := Write(out, format, sampleEntries())
		require.NoError(t, err)
		requireChecksum(t, out.Bytes(), sum)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	_, _, err = Encode("xml", nil)
	require.Error(t, err)
}

func TestEmptyExports(t *testing.T) {
	data, _, err := RewardsCSV(nil)
	require.NoError(t, err)
	require.Equal(t, "slot,owner,activity,num_tasks,num_users,consecutive_count,reward_amount,reward_units,timestamp\n", string(data))
	data, _, err = RewardsJSONL(nil)
	require.NoError(t, err)
	require.Empty(t, data)
}
