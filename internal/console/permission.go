package console

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/galaxysched/console/internal/db"
)

// JobStore is the slice of the registry the permission gate needs.
type JobStore interface {
	GetJob(ctx context.Context, jobID int64, master string) (db.Job, error)
	IsGroupMember(ctx context.Context, user string, groupID int64) (bool, error)
}

// PermissionGate decides whether a user may act on a job. Superuser status
// is irrelevant here: mutate and kill always require explicit group
// membership. The only superuser privilege is the wider list view, applied
// by the list operation itself.
type PermissionGate struct {
	store JobStore
}

func NewPermissionGate(store JobStore) *PermissionGate {
	return &PermissionGate{store: store}
}

// Authorize resolves jobID scoped to the master that issued it and checks
// the acting user's membership in the owning group. Action is only used to
// word the denial.
func (g *PermissionGate) Authorize(ctx context.Context, user string, jobID int64, master, action string) (db.Job, error) {
	job, err := g.store.GetJob(ctx, jobID, master)
	if errors.Is(err, db.ErrNotFound) {
		return db.Job{}, &JobNotFoundError{JobID: jobID}
	}
	if err != nil {
		return db.Job{}, pkgerrors.Wrapf(err, "fail to check permission for job %d", jobID)
	}

	member, err := g.store.IsGroupMember(ctx, user, job.GroupID)
	if err != nil {
		return db.Job{}, pkgerrors.Wrapf(err, "fail to check permission for job %d", jobID)
	}
	if !member {
		return db.Job{}, &PermissionDeniedError{User: user, JobID: jobID, Action: action}
	}
	return job, nil
}
