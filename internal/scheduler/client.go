package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
)

// Job is the scheduler's view of a running job, as returned by list.
type Job struct {
	ID         int64  `json:"job_id"`
	Name       string `json:"name"`
	State      string `json:"state"`
	ReplicaNum int64  `json:"replica_num"`
	RunningNum int64  `json:"running_num"`
}

// MonitorConf is attached to a create request when the caller asked for
// monitoring.
type MonitorConf struct {
	JobName  string `json:"job_name"`
	Tag      string `json:"tag,omitempty"`
	Interval int64  `json:"interval"`
}

// TaskSpec is the full shape forwarded to the master's create-task
// operation. Memory is in bytes, cpu values in millicores.
type TaskSpec struct {
	Name           string       `json:"name"`
	PkgSrc         string       `json:"pkg_src"`
	StartCmd       string       `json:"start_cmd"`
	ReplicaNum     int64        `json:"replica_num"`
	MemoryLimit    int64        `json:"mem_limit"`
	CPUSoftLimit   int64        `json:"cpu_soft_limit"`
	CPULimit       int64        `json:"cpu_limit"`
	DeployStepSize int64        `json:"deploy_step_size"`
	OneTaskPerHost bool         `json:"one_task_per_host"`
	RestrictTags   []string     `json:"restrict_tags,omitempty"`
	Monitor        *MonitorConf `json:"monitor,omitempty"`
}

// UpdateRequest mirrors the master's update-job operation.
type UpdateRequest struct {
	JobID          int64  `json:"job_id"`
	ReplicaNum     int64  `json:"replica_num"`
	PkgAddress     string `json:"pkg_addr"`
	DeployStepSize int64  `json:"deploy_step_size"`
	UpdateStepSize int64  `json:"update_step_size"`
	IsUpdating     bool   `json:"is_updating"`
}

// Client talks to one galaxy master. An explicit status=false in a response
// body and a transport fault surface identically, as a *RemoteError.
type Client interface {
	ListJobs(ctx context.Context) ([]Job, error)
	CreateTask(ctx context.Context, spec TaskSpec) (int64, error)
	UpdateJob(ctx context.Context, req UpdateRequest) error
	KillJob(ctx context.Context, jobID int64) error
}

// Factory builds a short-lived client handle for a master endpoint. No
// process-wide singleton; handlers construct one per request.
type Factory interface {
	New(endpoint string) Client
}

// RemoteError is any failure of a master operation, whether the master
// answered status=false or the call never completed.
type RemoteError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("fail to %s on master %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Doer lets tests substitute the transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPFactory struct {
	client Doer
}

// NewHTTPFactory builds a factory whose clients make exactly one attempt per
// call. A failed master call surfaces to the caller, never retried.
func NewHTTPFactory(timeout time.Duration) *HTTPFactory {
	client := pester.New()
	client.MaxRetries = 1
	client.Timeout = timeout
	return &HTTPFactory{client: client}
}

// NewHTTPFactoryWithClient injects a transport, for tests.
func NewHTTPFactoryWithClient(client Doer) *HTTPFactory {
	return &HTTPFactory{client: client}
}

func (f *HTTPFactory) New(endpoint string) Client {
	base := endpoint
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimSuffix(base, "/")
	return &httpClient{endpoint: endpoint, baseURL: base, client: f.client}
}

type httpClient struct {
	endpoint string
	baseURL  string
	client   Doer
}

type listResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Jobs    []Job  `json:"jobs"`
}

type createResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	JobID   int64  `json:"job_id"`
}

type statusResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

func (c *httpClient) ListJobs(ctx context.Context) ([]Job, error) {
	var out listResponse
	if err := c.post(ctx, "list jobs", "/task/list", struct{}{}, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, c.statusError("list jobs", out.Message)
	}
	return out.Jobs, nil
}

func (c *httpClient) CreateTask(ctx context.Context, spec TaskSpec) (int64, error) {
	var out createResponse
	if err := c.post(ctx, "create task", "/task/create", spec, &out); err != nil {
		return 0, err
	}
	if !out.Status {
		return 0, c.statusError("create task", out.Message)
	}
	return out.JobID, nil
}

func (c *httpClient) UpdateJob(ctx context.Context, req UpdateRequest) error {
	var out statusResponse
	if err := c.post(ctx, "update job", "/task/update", req, &out); err != nil {
		return err
	}
	if !out.Status {
		return c.statusError("update job", out.Message)
	}
	return nil
}

func (c *httpClient) KillJob(ctx context.Context, jobID int64) error {
	var out statusResponse
	in := struct {
		JobID int64 `json:"job_id"`
	}{JobID: jobID}
	if err := c.post(ctx, "kill job", "/task/kill", in, &out); err != nil {
		return err
	}
	if !out.Status {
		return c.statusError("kill job", out.Message)
	}
	return nil
}

func (c *httpClient) statusError(op, message string) error {
	if message == "" {
		message = "master returned status false"
	}
	return &RemoteError{Op: op, Endpoint: c.endpoint, Err: errors.New(message)}
}

func (c *httpClient) post(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &RemoteError{Op: op, Endpoint: c.endpoint, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Op: op, Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: op, Endpoint: c.endpoint, Err: errors.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, Endpoint: c.endpoint, Err: errors.Wrap(err, "malformed response")}
	}
	return nil
}
