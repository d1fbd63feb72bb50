package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galaxysched/console/internal/console"
	"github.com/galaxysched/console/internal/db"
	"github.com/galaxysched/console/internal/quota"
	"github.com/galaxysched/console/internal/scheduler"
)

// JobService is the orchestrator surface the service handlers drive.
type JobService interface {
	List(ctx context.Context, user db.User, master string) ([]scheduler.Job, error)
	Create(ctx context.Context, user string, req console.CreateRequest) (int64, error)
	Update(ctx context.Context, user string, master string, req console.UpdateRequest) error
	Kill(ctx context.Context, user string, jobID int64, master string) error
}

type listParams struct {
	Master string `form:"master" binding:"required"`
}

type createParams struct {
	GroupID        int64  `json:"groupId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	PkgSrc         string `json:"pkgSrc" binding:"required"`
	StartCmd       string `json:"startCmd" binding:"required"`
	Replicate      int64  `json:"replicate" binding:"required"`
	CPUShare       int64  `json:"cpuShare" binding:"required"`
	CPULimit       int64  `json:"cpuLimit" binding:"required"`
	MemoryLimit    int64  `json:"memoryLimit" binding:"required"`
	DeployStepSize int64  `json:"deployStepSize"`
	OneTaskPerHost bool   `json:"oneTaskPerHost"`
	Tag            string `json:"tag"`
	SetMonitor     bool   `json:"setMonitor"`
}

type updateParams struct {
	JobID          int64  `json:"job_id" binding:"required"`
	ReplicaNum     int64  `json:"replica_num" binding:"required"`
	PkgAddress     string `json:"pkg_addr"`
	DeployStepSize int64  `json:"deploy_step_size"`
	UpdateStepSize int64  `json:"update_step_size"`
	IsUpdating     bool   `json:"is_updating"`
}

type killParams struct {
	ID     int64  `form:"id" binding:"required"`
	Master string `form:"master" binding:"required"`
}

// ListServiceHandler handles GET /api/service/list.
func ListServiceHandler(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params listParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, Err("master is required"))
			return
		}

		jobs, err := svc.List(c.Request.Context(), CurrentUser(c), params.Master)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(jobs))
	}
}

// CreateServiceHandler handles POST /api/service/create.
func CreateServiceHandler(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params createParams
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, Err("invalid create request: "+err.Error()))
			return
		}

		req := console.CreateRequest{
			GroupID:        params.GroupID,
			Name:           params.Name,
			PkgSrc:         params.PkgSrc,
			StartCmd:       params.StartCmd,
			Replicate:      params.Replicate,
			CPUShare:       params.CPUShare,
			CPULimit:       params.CPULimit,
			MemoryLimit:    params.MemoryLimit,
			DeployStepSize: params.DeployStepSize,
			OneTaskPerHost: params.OneTaskPerHost,
			Tag:            params.Tag,
			SetMonitor:     params.SetMonitor,
		}

		jobID, err := svc.Create(c.Request.Context(), CurrentUser(c).Name, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(gin.H{"job_id": jobID}))
	}
}

// UpdateServiceHandler handles POST /api/service/update.
func UpdateServiceHandler(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		master := c.Query("master")
		if master == "" {
			c.JSON(http.StatusBadRequest, Err("master is required"))
			return
		}

		var params updateParams
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, Err("invalid update request: "+err.Error()))
			return
		}

		req := console.UpdateRequest{
			JobID:          params.JobID,
			ReplicaNum:     params.ReplicaNum,
			PkgAddress:     params.PkgAddress,
			DeployStepSize: params.DeployStepSize,
			UpdateStepSize: params.UpdateStepSize,
			IsUpdating:     params.IsUpdating,
		}

		if err := svc.Update(c.Request.Context(), CurrentUser(c).Name, master, req); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(nil))
	}
}

// KillServiceHandler handles POST /api/service/kill.
func KillServiceHandler(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params killParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, Err("id and master are required"))
			return
		}

		if err := svc.Kill(c.Request.Context(), CurrentUser(c).Name, params.ID, params.Master); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(nil))
	}
}

// writeError converts component errors into the uniform envelope. Raw
// faults never reach the caller.
func writeError(c *gin.Context, err error) {
	var (
		invalid  *quota.InvalidShapeError
		limit    *quota.LimitError
		exceeded *quota.ExceededError
		access   *console.GroupAccessError
		notFound *console.JobNotFoundError
		denied   *console.PermissionDeniedError
		remote   *scheduler.RemoteError
		partial  *console.PartialFailureError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, Err(invalid.Error()))
	case errors.As(err, &limit):
		c.JSON(http.StatusBadRequest, Err(limit.Error()))
	case errors.As(err, &exceeded):
		c.JSON(http.StatusForbidden, Err(exceeded.Error()))
	case errors.As(err, &access):
		c.JSON(http.StatusForbidden, Err(access.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Err(notFound.Error()))
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, Err(denied.Error()))
	case errors.As(err, &remote):
		c.JSON(http.StatusBadGateway, Err(remote.Error()))
	case errors.As(err, &partial):
		c.JSON(http.StatusInternalServerError, Err(partial.Error()))
	default:
		c.JSON(http.StatusInternalServerError, Err("internal error"))
	}
}
