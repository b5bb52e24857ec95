package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current instant for timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// IDGenerator produces identifiers for warehouses, items, entries and reports
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDv4 strings
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}
