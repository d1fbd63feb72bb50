package db

import "time"

// User is a console identity. Superuser widens the list view only; it never
// grants mutate or kill rights on another group's jobs.
type User struct {
	Name      string
	Superuser bool
}

// Group is the tenant and quota boundary. Jobs submitted by a group land on
// the scheduler instance at GalaxyMaster; CPUQuota is in millicores,
// MemQuota in bytes. MaxCPULimit caps the per-replica cpu limit of a single
// job, 0 means no cap.
type Group struct {
	ID           int64
	Name         string
	GalaxyMaster string
	CPUQuota     int64
	MemQuota     int64
	MaxCPULimit  int64
}

type GroupMember struct {
	UserName string
	GroupID  int64
}

// Job records a submission confirmed by the remote scheduler. ID is the
// scheduler-assigned identifier, only meaningful together with the group's
// galaxy master. Meta keeps the original request JSON for audit; CPUTotal
// and MemTotal are the committed demand counted by the quota ledger.
type Job struct {
	ID        int64
	GroupID   int64
	Meta      []byte
	CPUTotal  int64
	MemTotal  int64
	CreatedAt time.Time
}
