package quota

import (
	"context"

	"github.com/pkg/errors"

	"github.com/galaxysched/console/internal/db"
)

// Stat is a point-in-time view of a group's quota. Cpu values are in
// millicores, memory in bytes. Never stored; recomputed per request.
type Stat struct {
	CPUTotal int64
	CPUUsed  int64
	CPULeft  int64
	MemTotal int64
	MemUsed  int64
	MemLeft  int64
}

// Ledger reports the current quota position of a group.
type Ledger interface {
	Stat(ctx context.Context, group db.Group) (Stat, error)
}

// UsageStore provides the committed demand recorded for a group's jobs.
type UsageStore interface {
	GroupUsage(ctx context.Context, groupID int64) (cpu int64, mem int64, err error)
}

type dbLedger struct {
	store UsageStore
}

func NewLedger(store UsageStore) Ledger {
	return &dbLedger{store: store}
}

func (l *dbLedger) Stat(ctx context.Context, group db.Group) (Stat, error) {
	cpu, mem, err := l.store.GroupUsage(ctx, group.ID)
	if err != nil {
		return Stat{}, errors.Wrapf(err, "fail to compute quota stat for group %d", group.ID)
	}
	return Stat{
		CPUTotal: group.CPUQuota,
		CPUUsed:  cpu,
		CPULeft:  group.CPUQuota - cpu,
		MemTotal: group.MemQuota,
		MemUsed:  mem,
		MemLeft:  group.MemQuota - mem,
	}, nil
}
