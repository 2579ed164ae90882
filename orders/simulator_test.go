package orders

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T) (*Simulator, *time.Time) {
	t.Helper()
	sim := NewSimulator(DefaultConfig(), rand.New(rand.NewSource(1)))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sim.SetClock(func() time.Time { return now })
	return sim, &now
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func prices(ticker string, v float64) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{ticker: dec(v)}
}

func TestCreate_DirectionFromLotSign(t *testing.T) {
	t.Parallel()

	sim, _ := newTestSimulator(t)

	long := sim.Get(sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1"))
	assert.Equal(t, "buy", long.Direction)

	short := sim.Get(sim.Create("SiH5", 3, dec(100), nil, nil, "FUT1"))
	assert.Equal(t, "sell", short.Direction)

	flat := sim.Get(sim.Create("SiH5", 0, dec(100), nil, nil, "FUT1"))
	assert.Equal(t, DirectionClose, flat.Direction)

	assert.Equal(t, 3, sim.PendingCount())
}

func TestCheckReady_WaitsForDelay(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	id := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")

	// delay is at least one second, so nothing is ready yet
	assert.Empty(t, sim.CheckReady(prices("SiH5", 100)))
	assert.Equal(t, StatusPending, sim.Get(id).Status)

	*now = now.Add(5 * time.Second)
	ready := sim.CheckReady(prices("SiH5", 100.5))
	require.Len(t, ready, 1)
	assert.Equal(t, id, ready[0].ID)
	assert.Equal(t, StatusReady, ready[0].Status)
	require.NotNil(t, ready[0].ActualPrice)
	assert.Equal(t, "100.5", ready[0].ActualPrice.String())
}

func TestCheckReady_CancelsWithoutPrice(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	id := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")
	*now = now.Add(5 * time.Second)

	assert.Empty(t, sim.CheckReady(map[string]decimal.Decimal{}))

	order := sim.Get(id)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, "no_current_price", order.CancelReason)
}

func TestCheckReady_CancelsOnDeviation(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	id := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")
	*now = now.Add(5 * time.Second)

	// 2.5% above the expected price, limit is 1%
	assert.Empty(t, sim.CheckReady(prices("SiH5", 102.5)))

	order := sim.Get(id)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, "price_deviation_2.50%", order.CancelReason)
}

func TestCheckReady_ToleratesSmallDrift(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")
	*now = now.Add(5 * time.Second)

	ready := sim.CheckReady(prices("SiH5", 100.9))
	assert.Len(t, ready, 1)
}

func TestExecute_OnlyReadyOrders(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	id := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")

	// pending orders cannot be executed
	assert.Nil(t, sim.Execute(id))

	*now = now.Add(5 * time.Second)
	require.Len(t, sim.CheckReady(prices("SiH5", 100)), 1)

	executed := sim.Execute(id)
	require.NotNil(t, executed)
	assert.Equal(t, StatusExecuted, executed.Status)
	require.NotNil(t, executed.ExecutedAt)

	// a second execute is a no-op
	assert.Nil(t, sim.Execute(id))
	assert.Zero(t, sim.PendingCount())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	id := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")

	require.True(t, sim.Cancel(id, "manual"))
	assert.Equal(t, "manual", sim.Get(id).CancelReason)

	// already cancelled
	assert.False(t, sim.Cancel(id, "again"))

	// ready orders cannot be cancelled
	id2 := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")
	*now = now.Add(5 * time.Second)
	sim.CheckReady(prices("SiH5", 100))
	assert.False(t, sim.Cancel(id2, "late"))
}

func TestCleanupOldOrders(t *testing.T) {
	t.Parallel()

	sim, now := newTestSimulator(t)
	old := sim.Create("SiH5", -2, dec(100), nil, nil, "FUT1")
	sim.Cancel(old, "manual")
	pending := sim.Create("SiH5", -1, dec(100), nil, nil, "FUT1")

	*now = now.Add(48 * time.Hour)
	removed := sim.CleanupOldOrders(24 * time.Hour)

	assert.Equal(t, 1, removed)
	assert.Nil(t, sim.Get(old))
	// pending orders survive regardless of age
	assert.NotNil(t, sim.Get(pending))
}

func TestUniqueOrderIDs(t *testing.T) {
	t.Parallel()

	sim, _ := newTestSimulator(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := sim.Create("SiH5", -1, dec(100), nil, nil, "FUT1")
		require.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
}
