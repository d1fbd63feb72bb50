package quota

import (
	"context"
	"fmt"

	"github.com/galaxysched/console/internal/db"
)

// ExceededError reports an admission rejection with the exact demand and the
// exact remaining amount so callers can display actionable messages.
type ExceededError struct {
	Resource string
	Demand   int64
	Left     int64
}

func (e *ExceededError) Error() string {
	if e.Resource == "cpu" {
		return fmt.Sprintf("cpu %d exceeds the left cpu quota %d", e.Demand, e.Left)
	}
	return fmt.Sprintf("mem %d exceeds the left mem %d", e.Demand, e.Left)
}

// LimitError reports a per-job cpu limit violation against the group's hard
// cap.
type LimitError struct {
	Max int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("cpu limit exceeds the max cpu limit %d", e.Max)
}

// Controller gates job submissions against the group's quota before anything
// is forwarded to the remote scheduler.
type Controller struct {
	ledger Ledger
}

func NewController(ledger Ledger) *Controller {
	return &Controller{ledger: ledger}
}

// Evaluate accepts or rejects a requested shape. On acceptance the computed
// total requirement is returned unchanged, never clamped. The check is
// check-then-act against a live aggregate: two concurrent submissions can
// both pass before either job row exists. The scheduler's own admission is
// the final backstop.
func (c *Controller) Evaluate(ctx context.Context, group db.Group, shape Shape) (Requirement, error) {
	if group.MaxCPULimit > 0 && shape.CPULimit > group.MaxCPULimit {
		return Requirement{}, &LimitError{Max: group.MaxCPULimit}
	}

	req, err := Requirements(shape)
	if err != nil {
		return Requirement{}, err
	}

	stat, err := c.ledger.Stat(ctx, group)
	if err != nil {
		return Requirement{}, err
	}

	if req.CPUMillicores > stat.CPULeft {
		return Requirement{}, &ExceededError{Resource: "cpu", Demand: req.CPUMillicores, Left: stat.CPULeft}
	}
	if req.MemoryBytes > stat.MemLeft {
		return Requirement{}, &ExceededError{Resource: "mem", Demand: req.MemoryBytes, Left: stat.MemLeft}
	}
	return req, nil
}
