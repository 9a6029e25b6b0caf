package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datapass/datapass/internal/types"
)

func newTestSubscription(t *testing.T) (*Subscription, time.Time) {
	t.Helper()
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Subscription{
		ID:            1,
		ValidSince:    since,
		ValidTill:     since.Add(types.DaysToDuration(30)),
		PaidConsumers: 3,
		BaseModel:     types.GetDefaultBaseModel(since),
	}, since
}

func TestSubscriptionIsValidAt(t *testing.T) {
	sub, since := newTestSubscription(t)

	assert.True(t, sub.IsValidAt(since))
	assert.True(t, sub.IsValidAt(sub.ValidTill.Add(-time.Second)))
	// Expiry is exclusive, the boundary instant is already lapsed.
	assert.False(t, sub.IsValidAt(sub.ValidTill))
	assert.False(t, sub.IsValidAt(sub.ValidTill.Add(time.Hour)))
}

func TestSubscriptionDurationDays(t *testing.T) {
	sub, _ := newTestSubscription(t)
	assert.Equal(t, 30, sub.DurationDays())

	sub.ValidTill = sub.ValidSince
	assert.Equal(t, 0, sub.DurationDays())
}

func TestSubscriptionConsumerSet(t *testing.T) {
	sub, _ := newTestSubscription(t)

	assert.True(t, sub.AddConsumer("carol"))
	assert.True(t, sub.AddConsumer("alice"))
	assert.False(t, sub.AddConsumer("alice"), "duplicate add must be a no-op")

	// Members are kept sorted for deterministic reads.
	assert.Equal(t, []string{"alice", "carol"}, sub.Consumers)
	assert.True(t, sub.HasConsumer("alice"))
	assert.False(t, sub.HasConsumer("bob"))

	assert.True(t, sub.RemoveConsumer("alice"))
	assert.False(t, sub.RemoveConsumer("alice"))
	assert.Equal(t, []string{"carol"}, sub.Consumers)
	assert.Equal(t, 1, sub.ConsumerCount())
}

func TestSubscriptionClone(t *testing.T) {
	sub, _ := newTestSubscription(t)
	sub.AddConsumer("alice")

	clone := sub.Clone()
	clone.AddConsumer("bob")
	clone.PaidConsumers = 10

	assert.Equal(t, []string{"alice"}, sub.Consumers)
	assert.Equal(t, 3, sub.PaidConsumers)
}

func TestSubscriptionValidate(t *testing.T) {
	sub, _ := newTestSubscription(t)
	assert.NoError(t, sub.Validate())

	// A zero-length window is legal, it models an expired reactivation base.
	sub.ValidTill = sub.ValidSince
	assert.NoError(t, sub.Validate())

	sub.ValidTill = sub.ValidSince.Add(-time.Second)
	assert.Error(t, sub.Validate())

	sub, _ = newTestSubscription(t)
	sub.PaidConsumers = -1
	assert.Error(t, sub.Validate())
}
