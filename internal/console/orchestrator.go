package console

import (
	"context"
	"encoding/json"
	"strings"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/galaxysched/console/internal/db"
	"github.com/galaxysched/console/internal/quota"
	"github.com/galaxysched/console/internal/scheduler"
)

// Store is the registry surface the orchestrator writes and reads.
type Store interface {
	GetGroup(ctx context.Context, id int64) (db.Group, error)
	IsGroupMember(ctx context.Context, user string, groupID int64) (bool, error)
	InsertJob(ctx context.Context, job db.Job) error
	VisibleJobIDs(ctx context.Context, user string, master string) (map[int64]bool, error)
}

// Admitter runs quota admission for a create request.
type Admitter interface {
	Evaluate(ctx context.Context, group db.Group, shape quota.Shape) (quota.Requirement, error)
}

// Gate authorizes mutate and kill operations on an existing job.
type Gate interface {
	Authorize(ctx context.Context, user string, jobID int64, master, action string) (db.Job, error)
}

// CreateRequest is the validated job shape submitted by a console user.
// Field names follow the wire form the console has always accepted.
type CreateRequest struct {
	GroupID        int64  `json:"groupId"`
	Name           string `json:"name"`
	PkgSrc         string `json:"pkgSrc"`
	StartCmd       string `json:"startCmd"`
	Replicate      int64  `json:"replicate"`
	CPUShare       int64  `json:"cpuShare"`
	CPULimit       int64  `json:"cpuLimit"`
	MemoryLimit    int64  `json:"memoryLimit"`
	DeployStepSize int64  `json:"deployStepSize"`
	OneTaskPerHost bool   `json:"oneTaskPerHost"`
	Tag            string `json:"tag"`
	SetMonitor     bool   `json:"setMonitor"`
}

// UpdateRequest carries a live update to a job already on the master. The
// job's shape is not duplicated locally, so no local write happens.
type UpdateRequest struct {
	JobID          int64  `json:"job_id"`
	ReplicaNum     int64  `json:"replica_num"`
	PkgAddress     string `json:"pkg_addr"`
	DeployStepSize int64  `json:"deploy_step_size"`
	UpdateStepSize int64  `json:"update_step_size"`
	IsUpdating     bool   `json:"is_updating"`
}

// Orchestrator sequences every job-mutating request: validate locally, then
// mutate on the master, then record locally. The master and the registry are
// not transactionally linked; the ordering is what keeps them consistent,
// except for the recording-failure window documented on Create.
type Orchestrator struct {
	store   Store
	admit   Admitter
	gate    Gate
	clients scheduler.Factory
}

func NewOrchestrator(store Store, admit Admitter, gate Gate, clients scheduler.Factory) *Orchestrator {
	return &Orchestrator{store: store, admit: admit, gate: gate, clients: clients}
}

// Create admits the request against the group's quota, forwards it to the
// group's master, and records the scheduler-assigned id. A remote failure
// leaves no local record. If recording fails after the master accepted, the
// orphan remote job is logged and surfaced as a PartialFailureError; it is
// not compensated.
func (o *Orchestrator) Create(ctx context.Context, user string, req CreateRequest) (int64, error) {
	member, err := o.store.IsGroupMember(ctx, user, req.GroupID)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "fail to create task in group %d", req.GroupID)
	}
	if !member {
		return 0, &GroupAccessError{GroupID: req.GroupID}
	}

	group, err := o.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "fail to create task in group %d", req.GroupID)
	}

	shape := quota.Shape{
		Replicas:      req.Replicate,
		CPUShare:      req.CPUShare,
		CPULimit:      req.CPULimit,
		MemoryLimitGB: req.MemoryLimit,
	}
	requirement, err := o.admit.Evaluate(ctx, group, shape)
	if err != nil {
		return 0, err
	}

	spec := scheduler.TaskSpec{
		Name:           req.Name,
		PkgSrc:         req.PkgSrc,
		StartCmd:       req.StartCmd,
		ReplicaNum:     req.Replicate,
		MemoryLimit:    req.MemoryLimit * (int64(1) << 30),
		CPUSoftLimit:   req.CPUShare,
		CPULimit:       req.CPULimit,
		DeployStepSize: req.DeployStepSize,
		OneTaskPerHost: req.OneTaskPerHost,
	}
	if tag := strings.TrimSpace(req.Tag); tag != "" {
		spec.RestrictTags = []string{tag}
	}
	if req.SetMonitor {
		spec.Monitor = buildMonitorConf(req)
	}

	client := o.clients.New(group.GalaxyMaster)
	jobID, err := client.CreateTask(ctx, spec)
	if err != nil {
		return 0, err
	}

	meta, _ := json.Marshal(req)
	job := db.Job{
		ID:       jobID,
		GroupID:  group.ID,
		Meta:     meta,
		CPUTotal: requirement.CPUMillicores,
		MemTotal: requirement.MemoryBytes,
	}
	if err := o.store.InsertJob(ctx, job); err != nil {
		log.WithFields(log.Fields{
			"job_id": jobID,
			"group":  group.ID,
			"master": group.GalaxyMaster,
			"user":   user,
		}).Errorf("job created on master but recording failed: %v", err)
		return 0, &PartialFailureError{JobID: jobID, Err: err}
	}
	return jobID, nil
}

// Update forwards a live update to the master after the permission gate
// passes. Quota is not re-checked here; the master rejects infeasible
// updates itself. This is long-standing behavior, kept as-is.
func (o *Orchestrator) Update(ctx context.Context, user string, master string, req UpdateRequest) error {
	_, err := o.gate.Authorize(ctx, user, req.JobID, master, "update")
	if err != nil {
		return err
	}

	client := o.clients.New(master)
	return client.UpdateJob(ctx, scheduler.UpdateRequest{
		JobID:          req.JobID,
		ReplicaNum:     req.ReplicaNum,
		PkgAddress:     req.PkgAddress,
		DeployStepSize: req.DeployStepSize,
		UpdateStepSize: req.UpdateStepSize,
		IsUpdating:     req.IsUpdating,
	})
}

// Kill tells the master to kill the job. The local record is kept for
// audit; cleanup is an administrative concern.
func (o *Orchestrator) Kill(ctx context.Context, user string, jobID int64, master string) error {
	_, err := o.gate.Authorize(ctx, user, jobID, master, "kill")
	if err != nil {
		return err
	}

	client := o.clients.New(master)
	return client.KillJob(ctx, jobID)
}

// List returns the master's job list filtered to jobs owned by the caller's
// groups. Superusers see every job on the master; that read bypass is the
// sole superuser privilege.
func (o *Orchestrator) List(ctx context.Context, user db.User, master string) ([]scheduler.Job, error) {
	visible := map[int64]bool{}
	if !user.Superuser {
		var err error
		visible, err = o.store.VisibleJobIDs(ctx, user.Name, master)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "fail to list jobs on %s", master)
		}
	}

	client := o.clients.New(master)
	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	ret := make([]scheduler.Job, 0, len(jobs))
	for _, job := range jobs {
		if !user.Superuser && !visible[job.ID] {
			continue
		}
		ret = append(ret, job)
	}
	return ret, nil
}

func buildMonitorConf(req CreateRequest) *scheduler.MonitorConf {
	conf := &scheduler.MonitorConf{
		JobName:  req.Name,
		Interval: 60,
	}
	if tag := strings.TrimSpace(req.Tag); tag != "" {
		conf.Tag = tag
	}
	return conf
}
