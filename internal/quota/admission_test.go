package quota

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxysched/console/internal/db"
)

type fakeLedger struct {
	stat Stat
	err  error
}

func (f *fakeLedger) Stat(ctx context.Context, group db.Group) (Stat, error) {
	return f.stat, f.err
}

func statWithLeft(cpuLeft, memLeft int64) Stat {
	return Stat{
		CPUTotal: cpuLeft, CPULeft: cpuLeft,
		MemTotal: memLeft, MemLeft: memLeft,
	}
}

func TestEvaluateAccept(t *testing.T) {
	// Group with 4000 millicores free: replicas=2 x cpuShare=1000 fits.
	ledger := &fakeLedger{stat: statWithLeft(4000, 64*1024*1024*1024)}
	controller := NewController(ledger)
	group := db.Group{ID: 1, GalaxyMaster: "master-a:7810"}

	req, err := controller.Evaluate(context.Background(), group, Shape{
		Replicas: 2, CPUShare: 1000, CPULimit: 2000, MemoryLimitGB: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2000), req.CPUMillicores, "accepted shape must be carried forward unchanged")
	assert.Equal(t, int64(2*1024*1024*1024), req.MemoryBytes)
}

func TestEvaluateCPUExceeded(t *testing.T) {
	// 3500 of 4000 committed leaves 500; demand 2000 must be rejected with
	// both numbers in the message.
	ledger := &fakeLedger{stat: Stat{
		CPUTotal: 4000, CPUUsed: 3500, CPULeft: 500,
		MemTotal: 64 << 30, MemLeft: 64 << 30,
	}}
	controller := NewController(ledger)

	_, err := controller.Evaluate(context.Background(), db.Group{ID: 1}, Shape{
		Replicas: 2, CPUShare: 1000, CPULimit: 2000, MemoryLimitGB: 1,
	})

	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "cpu 2000 exceeds the left cpu quota 500", err.Error())
	assert.Equal(t, int64(2000), exceeded.Demand)
	assert.Equal(t, int64(500), exceeded.Left)
}

func TestEvaluateMemExceeded(t *testing.T) {
	ledger := &fakeLedger{stat: statWithLeft(10000, 1<<30)}
	controller := NewController(ledger)

	_, err := controller.Evaluate(context.Background(), db.Group{ID: 1}, Shape{
		Replicas: 3, CPUShare: 100, CPULimit: 200, MemoryLimitGB: 2,
	})

	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "mem", exceeded.Resource)
	assert.Equal(t, int64(6442450944), exceeded.Demand)
	assert.Equal(t, int64(1<<30), exceeded.Left)
}

func TestEvaluateMaxCPULimit(t *testing.T) {
	// The per-job hard cap is checked before the ledger is consulted.
	ledger := &fakeLedger{stat: statWithLeft(1<<40, 1<<50)}
	controller := NewController(ledger)
	group := db.Group{ID: 1, MaxCPULimit: 1000}

	_, err := controller.Evaluate(context.Background(), group, Shape{
		Replicas: 1, CPUShare: 500, CPULimit: 2000, MemoryLimitGB: 1,
	})

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "cpu limit exceeds the max cpu limit 1000", err.Error())
}

func TestEvaluateNoClampingAtBoundary(t *testing.T) {
	// Demand exactly equal to the remaining quota is accepted.
	ledger := &fakeLedger{stat: statWithLeft(2000, 2<<30)}
	controller := NewController(ledger)

	req, err := controller.Evaluate(context.Background(), db.Group{ID: 1}, Shape{
		Replicas: 2, CPUShare: 1000, CPULimit: 1000, MemoryLimitGB: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2000), req.CPUMillicores)
}

func TestEvaluateMonotonicity(t *testing.T) {
	// Increasing remaining capacity never turns an accept into a reject.
	shape := Shape{Replicas: 2, CPUShare: 1000, CPULimit: 1000, MemoryLimitGB: 1}
	accepted := false
	for _, left := range []int64{2000, 4000, 8000, 16000} {
		ledger := &fakeLedger{stat: statWithLeft(left, 64<<30)}
		_, err := NewController(ledger).Evaluate(context.Background(), db.Group{ID: 1}, shape)
		if accepted {
			require.NoError(t, err, "cpu left %d", left)
		}
		if err == nil {
			accepted = true
		}
	}
	assert.True(t, accepted)
}

func TestEvaluateInvalidShape(t *testing.T) {
	ledger := &fakeLedger{stat: statWithLeft(4000, 64<<30)}
	controller := NewController(ledger)

	_, err := controller.Evaluate(context.Background(), db.Group{ID: 1}, Shape{
		Replicas: 0, CPUShare: 1000, CPULimit: 1000, MemoryLimitGB: 1,
	})

	var invalid *InvalidShapeError
	require.ErrorAs(t, err, &invalid)
}

func TestLedgerStat(t *testing.T) {
	store := &fakeUsageStore{cpu: 3500, mem: 10 << 30}
	ledger := NewLedger(store)
	group := db.Group{ID: 7, CPUQuota: 4000, MemQuota: 64 << 30}

	stat, err := ledger.Stat(context.Background(), group)

	require.NoError(t, err)
	assert.Equal(t, int64(4000), stat.CPUTotal)
	assert.Equal(t, int64(3500), stat.CPUUsed)
	assert.Equal(t, int64(500), stat.CPULeft)
	assert.Equal(t, int64(54<<30), stat.MemLeft)
}

type fakeUsageStore struct {
	cpu, mem int64
}

func (f *fakeUsageStore) GroupUsage(ctx context.Context, groupID int64) (int64, int64, error) {
	return f.cpu, f.mem, nil
}
