package console

import "fmt"

// GroupAccessError is returned when the acting user is not linked to the
// requested group. The message matches what the console has always shown and
// deliberately does not reveal whether the group exists.
type GroupAccessError struct {
	GroupID int64
}

func (e *GroupAccessError) Error() string {
	return fmt.Sprintf("group with %d does not exist", e.GroupID)
}

// JobNotFoundError is returned when no local record matches (job id, master).
// Jobs created outside this console are denied the same way on purpose.
type JobNotFoundError struct {
	JobID int64
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job %d does not exist in db", e.JobID)
}

// PermissionDeniedError keeps the denial generic so group topology does not
// leak to the caller.
type PermissionDeniedError struct {
	User   string
	JobID  int64
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("you have no permission to %s job %d", e.Action, e.JobID)
}

// PartialFailureError marks the one divergence window between the master and
// the local registry: the remote create succeeded but recording failed. The
// job now exists on the master with no local record and is not reconciled
// automatically. Callers see a generic failure; the detail is logged
// server-side.
type PartialFailureError struct {
	JobID int64
	Err   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("fail to record job %d", e.JobID)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
