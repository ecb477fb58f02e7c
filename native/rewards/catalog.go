package rewards

import (
	"fmt"
	"sort"
	"strings"
)

// ActivityID names a user-performable action with a configured base reward.
type ActivityID string

// UserID is the already-authenticated identity a reward is credited to.
type UserID string

// Activities shipped with the default catalog.
const (
	ActivityCheckIn        ActivityID = "Check-in"
	ActivityViewAnalytics  ActivityID = "View Analytics"
	ActivityCastVote       ActivityID = "Cast a Vote"
	ActivityReferUser      ActivityID = "Refer a User"
	ActivityDeployContract ActivityID = "Deploy a Contract"
	ActivityStake          ActivityID = "Stake SOL"
)

// Catalog is the read-only mapping from activity to base reward, expressed in
// base units. It has no write path once constructed.
type Catalog struct {
	base map[ActivityID]uint64
}

// NewCatalog copies the supplied table into an immutable catalog.
func NewCatalog(entries map[ActivityID]uint64) (*Catalog, error) {
	base := make(map[ActivityID]uint64, len(entries))
	for id, reward := range entries {
		name := ActivityID(strings.TrimSpace(string(id)))
		if name == "" {
			return nil, fmt.Errorf("%w: empty activity name", ErrConfig)
		}
		if name != id {
			return nil, fmt.Errorf("%w: activity %q has surrounding whitespace", ErrConfig, id)
		}
		base[id] = reward
	}
	return &Catalog{base: base}, nil
}

// DefaultCatalog returns the built-in activity table.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultActivities())
	if err != nil {
		panic(err)
	}
	return catalog
}

// DefaultActivities returns a fresh copy of the built-in activity table.
func DefaultActivities() map[ActivityID]uint64 {
	return map[ActivityID]uint64{
		ActivityCheckIn:        10_000_000,
		ActivityViewAnalytics:  10_000_000,
		ActivityCastVote:       50_000_000,
		ActivityReferUser:      50_000_000,
		ActivityDeployContract: 100_000_000,
		ActivityStake:          100_000_000,
	}
}

// BaseReward returns the configured base reward for the activity.
func (c *Catalog) BaseReward(id ActivityID) (uint64, error) {
	if c == nil {
		return 0, fmt.Errorf("%w: catalog not loaded", ErrConfig)
	}
	reward, ok := c.base[id]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownActivity, id)
	}
	return reward, nil
}

// Has reports whether the activity is configured.
func (c *Catalog) Has(id ActivityID) bool {
	if c == nil {
		return false
	}
	_, ok := c.base[id]
	return ok
}

// Activities lists the configured activities in lexical order.
func (c *Catalog) Activities() []ActivityID {
	if c == nil {
		return nil
	}
	ids := make([]ActivityID, 0, len(c.base))
	for id := range c.base {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of configured activities.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.base)
}
