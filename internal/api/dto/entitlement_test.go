package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ierr "github.com/datapass/datapass/internal/errors"
)

func TestSubscribeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SubscribeRequest
		wantErr bool
	}{
		{
			name: "seat count only",
			req:  SubscribeRequest{ResourceID: "ds", DurationDays: 30, ConsumerCount: 5},
		},
		{
			name: "consumer list only",
			req:  SubscribeRequest{ResourceID: "ds", DurationDays: 30, Consumers: []string{"a", "b"}},
		},
		{
			name:    "neither seats nor consumers",
			req:     SubscribeRequest{ResourceID: "ds", DurationDays: 30},
			wantErr: true,
		},
		{
			name:    "missing resource",
			req:     SubscribeRequest{DurationDays: 30, ConsumerCount: 1},
			wantErr: true,
		},
		{
			name:    "zero duration",
			req:     SubscribeRequest{ResourceID: "ds", ConsumerCount: 1},
			wantErr: true,
		},
		{
			name:    "empty consumer address",
			req:     SubscribeRequest{ResourceID: "ds", DurationDays: 30, Consumers: []string{""}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubscribeRequestSeats(t *testing.T) {
	req := SubscribeRequest{ConsumerCount: 5}
	assert.Equal(t, 5, req.Seats())

	// An explicit list wins over the count.
	req.Consumers = []string{"a", "b"}
	assert.Equal(t, 2, req.Seats())
}

func TestReplaceConsumersRequestValidate(t *testing.T) {
	req := ReplaceConsumersRequest{
		SubscriptionID: 1,
		OldConsumers:   []string{"a"},
		NewConsumers:   []string{"b"},
	}
	assert.NoError(t, req.Validate())

	req.NewConsumers = []string{"b", "c"}
	err := req.Validate()
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestExtendSubscriptionRequestValidate(t *testing.T) {
	assert.NoError(t, (&ExtendSubscriptionRequest{SubscriptionID: 1}).Validate())
	assert.Error(t, (&ExtendSubscriptionRequest{SubscriptionID: 1, ExtraDurationDays: -1}).Validate())
	assert.Error(t, (&ExtendSubscriptionRequest{}).Validate())
}
