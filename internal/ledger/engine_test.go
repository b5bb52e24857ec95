package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// stepClock advances by a fixed step on every read
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Minute}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// seqIDs issues predictable identifiers
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestEngine() *Engine {
	return NewEngine(newStepClock(), &seqIDs{})
}

func TestCreateAndConsumeScenario(t *testing.T) {
	engine := newTestEngine()

	item, err := engine.CreateItem("wh1", "Widget", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, item.Quantity)
	require.Len(t, item.History, 1)

	created := item.History[0]
	assert.Equal(t, domain.EntryCreateItem, created.Type)
	assert.Equal(t, 100, created.Change)
	assert.Equal(t, 0, created.QuantityBefore)
	assert.Equal(t, 100, created.QuantityAfter)
	assert.Equal(t, InitialEntryComment, created.Comment)

	consumed, entry, err := engine.ConsumeStock(item, 30, "sold")
	require.NoError(t, err)
	assert.Equal(t, 70, consumed.Quantity)
	require.Len(t, consumed.History, 2)
	assert.Equal(t, domain.EntryConsumeStock, entry.Type)
	assert.Equal(t, -30, entry.Change)
	assert.Equal(t, 100, entry.QuantityBefore)
	assert.Equal(t, 70, entry.QuantityAfter)
	assert.Equal(t, "sold", entry.Comment)
	assert.Equal(t, entry, consumed.History[1])

	require.NoError(t, Verify(consumed))
}

func TestOverconsumptionRejected(t *testing.T) {
	engine := newTestEngine()

	item, err := engine.CreateItem("wh1", "Bolts", 10)
	require.NoError(t, err)

	updated, _, err := engine.ConsumeStock(item, 15, "")
	require.Error(t, err)
	assert.Nil(t, updated)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 15, insufficient.Requested)

	assert.Equal(t, 10, item.Quantity)
	assert.Len(t, item.History, 1)
}

func TestConsumeEntireStock(t *testing.T) {
	engine := newTestEngine()

	item, err := engine.CreateItem("wh1", "Nuts", 5)
	require.NoError(t, err)

	updated, _, err := engine.ConsumeStock(item, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.True(t, updated.IsEmpty())
}

func TestValidationErrors(t *testing.T) {
	engine := newTestEngine()
	item, err := engine.CreateItem("wh1", "Widget", 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		field string
		run   func() error
	}{
		{"empty name", "name", func() error { _, err := engine.CreateItem("wh1", "   ", 1); return err }},
		{"missing warehouse", "warehouse_id", func() error { _, err := engine.CreateItem("", "Widget", 1); return err }},
		{"zero initial quantity", "initial_quantity", func() error { _, err := engine.CreateItem("wh1", "Widget", 0); return err }},
		{"negative initial quantity", "initial_quantity", func() error { _, err := engine.CreateItem("wh1", "Widget", -4); return err }},
		{"zero add", "amount", func() error { _, _, err := engine.AddStock(item, 0, ""); return err }},
		{"negative add", "amount", func() error { _, _, err := engine.AddStock(item, -1, ""); return err }},
		{"zero consume", "amount", func() error { _, _, err := engine.ConsumeStock(item, 0, ""); return err }},
		{"nil item", "item", func() error { _, _, err := engine.AddStock(nil, 1, ""); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var validation *domain.ValidationError
			require.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, validation.Field)
		})
	}

	assert.Len(t, item.History, 1, "failed operations must not touch the item")
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	engine := newTestEngine()
	item, err := engine.CreateItem("wh1", "Widget", 10)
	require.NoError(t, err)

	before := item.Clone()
	_, _, err = engine.AddStock(item, 5, "restock")
	require.NoError(t, err)

	assert.Equal(t, before, item)
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Hour), base.Add(-2 * time.Hour)}
	calls := 0
	clock := ClockFunc(func() time.Time {
		t := times[calls%len(times)]
		calls++
		return t
	})

	engine := NewEngine(clock, &seqIDs{})
	item, err := engine.CreateItem("wh1", "Widget", 10)
	require.NoError(t, err)

	item, _, err = engine.AddStock(item, 1, "")
	require.NoError(t, err)
	item, _, err = engine.ConsumeStock(item, 2, "")
	require.NoError(t, err)

	for i := 1; i < len(item.History); i++ {
		assert.False(t, item.History[i].Timestamp.Before(item.History[i-1].Timestamp), "entry %d went back in time", i)
	}
	require.NoError(t, Verify(item))
}

func TestEntryIDsUniqueWithinItem(t *testing.T) {
	engine := NewEngine(nil, nil)
	item, err := engine.CreateItem("wh1", "Widget", 10)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		item, _, err = engine.AddStock(item, 1, "")
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for _, entry := range item.History {
		assert.False(t, seen[entry.ID], "duplicate entry id %s", entry.ID)
		seen[entry.ID] = true
	}
}
