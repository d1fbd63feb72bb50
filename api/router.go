package api

import (
	"github.com/gin-gonic/gin"

	"github.com/galaxysched/console/api/handlers"
	"github.com/galaxysched/console/internal/config"
)

func SetupRouter(svc handlers.JobService, users handlers.UserStore, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api", handlers.AuthGuard(users, cfg.AuthToken))
	{
		service := api.Group("/service")
		service.GET("/list", handlers.ListServiceHandler(svc))
		service.POST("/create", handlers.CreateServiceHandler(svc))
		service.POST("/update", handlers.UpdateServiceHandler(svc))
		service.POST("/kill", handlers.KillServiceHandler(svc))
	}

	return r
}
