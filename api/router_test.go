package api

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxysched/console/internal/config"
	"github.com/galaxysched/console/internal/console"
	"github.com/galaxysched/console/internal/db"
	"github.com/galaxysched/console/internal/scheduler"
)

type stubService struct{}

func (stubService) List(ctx context.Context, user db.User, master string) ([]scheduler.Job, error) {
	return nil, nil
}

func (stubService) Create(ctx context.Context, user string, req console.CreateRequest) (int64, error) {
	return 0, nil
}

func (stubService) Update(ctx context.Context, user string, master string, req console.UpdateRequest) error {
	return nil
}

func (stubService) Kill(ctx context.Context, user string, jobID int64, master string) error {
	return nil
}

type stubUserStore struct{}

func (stubUserStore) GetUser(ctx context.Context, name string) (db.User, error) {
	return db.User{Name: name}, nil
}

func TestSetupRouter(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		ServerAddress: ":8080",
		AuthToken:     "token",
	}

	// Act
	router := SetupRouter(stubService{}, stubUserStore{}, cfg)

	// Assert
	require.NotNil(t, router, "Router should not be nil")
	routes := router.Routes()

	// Expected routes
	expectedRoutes := []struct {
		method string
		path   string
	}{
		{method: "GET", path: "/api/service/list"},
		{method: "POST", path: "/api/service/create"},
		{method: "POST", path: "/api/service/update"},
		{method: "POST", path: "/api/service/kill"},
	}

	// Verify all expected routes exist
	for _, expected := range expectedRoutes {
		found := false
		for _, route := range routes {
			if route.Method == expected.method && route.Path == expected.path {
				found = true
				assert.NotNil(t, route.HandlerFunc, "Handler for %s %s should be set", expected.method, expected.path)
				break
			}
		}
		assert.True(t, found, "Route %s %s should be registered", expected.method, expected.path)
	}

	// Verify no unexpected routes
	for _, route := range routes {
		isExpected := false
		for _, expected := range expectedRoutes {
			if route.Method == expected.method && route.Path == expected.path {
				isExpected = true
				break
			}
		}
		assert.True(t, isExpected, "Unexpected route found: %s %s", route.Method, route.Path)
	}

	// Verify route count
	assert.Equal(t, 4, len(routes), "Router should have exactly 4 routes")
}

func TestSetupRouter_GroupPrefix(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}

	// Act
	router := SetupRouter(stubService{}, stubUserStore{}, cfg)

	// Assert
	routes := router.Routes()
	for _, route := range routes {
		assert.Contains(t, route.Path, "/api/service/", "Route %s should be under the /api/service group", route.Path)
	}
}
