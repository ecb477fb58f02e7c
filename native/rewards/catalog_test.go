package rewards

import (
	"errors"
	"reflect"
	"testing"
)

func TestCatalogImmutable(t *testing.T) {
	table := map[ActivityID]uint64{"a": 1}
	catalog, err := NewCatalog(table)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	table["a"] = 99
	table["b"] = 2
	got, err := catalog.BaseReward("a")
	if err != nil || got != 1 {
		t.Fatalf("expected 1 got %d (%v)", got, err)
	}
	if catalog.Has("b") {
		t.Fatalf("catalog observed caller mutation")
	}
}

func TestCatalogRejectsBadNames(t *testing.T) {
	for _, name := range []ActivityID{"", "  ", " Check-in"} {
		if _, err := NewCatalog(map[ActivityID]uint64{name: 1}); !errors.Is(err, ErrConfig) {
			t.Fatalf("name %q: expected config error got %v", name, err)
		}
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	want := []ActivityID{
		ActivityCastVote,
		ActivityCheckIn,
		ActivityDeployContract,
		ActivityReferUser,
		ActivityStake,
		ActivityViewAnalytics,
	}
	if got := catalog.Activities(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected activities %v", got)
	}
	if catalog.Len() != 6 {
		t.Fatalf("expected 6 activities got %d", catalog.Len())
	}
	base, err := catalog.BaseReward(ActivityDeployContract)
	if err != nil || FormatAmount(base) != "0.1" {
		t.Fatalf("unexpected base reward %d (%v)", base, err)
	}
	if _, err := catalog.BaseReward("Nonexistent"); !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("expected unknown activity got %v", err)
	}
}
