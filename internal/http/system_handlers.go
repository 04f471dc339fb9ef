package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"

	"notes/app/internal/db"
)

const (
	docsPath               = "/docs"
	healthPath             = "/health"
	databaseUnavailableMsg = "API is running but database connection failed"
)

type rootInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	APIVersion    string `json:"api_version"`
	Description   string `json:"description"`
	DocsURL       string `json:"docs_url"`
	HealthURL     string `json:"health_url"`
	CurrentAPIURL string `json:"current_api_url"`
}

type healthResponse struct {
	Body struct {
		Status  string `json:"status" example:"healthy"`
		Message string `json:"message" example:"API is running"`
	}
}

type detailedHealthResponse struct {
	Body struct {
		Status   string `json:"status" example:"healthy"`
		Message  string `json:"message" example:"API and database are running"`
		Database string `json:"database" example:"connected"`
	}
}

// registerRootRoute serves the API index directly on the mux. An exact-match
// pattern keeps unknown paths falling through to the mux's 404.
func (s *Server) registerRootRoute() {
	info := rootInfo{
		Name:          apiName,
		Version:       apiVersion,
		APIVersion:    apiPathVersion,
		Description:   apiDescription,
		DocsURL:       docsPath,
		HealthURL:     healthPath,
		CurrentAPIURL: "/" + apiPathVersion,
	}

	s.mux.HandleFunc("GET /{$}", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stdhttp.StatusOK)
		if err := json.NewEncoder(w).Encode(info); err != nil {
			s.recordError(r.Context(), err, "writing root response", nil)
		}
	})
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      stdhttp.MethodGet,
		Path:        healthPath,
		Summary:     "Basic health check",
		Tags:        []string{"health"},
	}, s.healthHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "detailed-health-check",
		Method:      stdhttp.MethodGet,
		Path:        healthPath + "/detailed",
		Summary:     "Health check including database connectivity",
		Tags:        []string{"health"},
		Errors:      []int{stdhttp.StatusServiceUnavailable},
	}, s.detailedHealthHandler)
}

func (s *Server) healthHandler(_ context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Message = "API is running"
	return resp, nil
}

func (s *Server) detailedHealthHandler(ctx context.Context, _ *struct{}) (*detailedHealthResponse, error) {
	if err := db.Ping(ctx, s.db); err != nil {
		s.recordError(ctx, err, "database health check failed", nil)
		return nil, &ErrorBody{status: stdhttp.StatusServiceUnavailable, Detail: databaseUnavailableMsg}
	}

	resp := &detailedHealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Message = "API and database are running"
	resp.Body.Database = "connected"
	return resp, nil
}
