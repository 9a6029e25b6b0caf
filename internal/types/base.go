package types

import "time"

// BaseModel carries the bookkeeping columns shared by persisted entities.
type BaseModel struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetDefaultBaseModel returns a BaseModel stamped with the given time.
func GetDefaultBaseModel(now time.Time) BaseModel {
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clock supplies the current time for an operation. Every public operation
// reads the clock exactly once, at the start of its validity checks.
type Clock func() time.Time

// DefaultClock reads the system clock in UTC.
func DefaultClock() time.Time {
	return time.Now().UTC()
}
