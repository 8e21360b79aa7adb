package app

import (
	"context"
	"time"

	"grammarbridge/internal/core/errors"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "up" only when the module loaded and its language export
// passes the type tag check.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if _, err := s.app.Grammar(); err != nil {
		status.Status = "down"
		status.Components["module"] = string(errors.CodeOf(err))
		return status
	}
	status.Components["module"] = "ok"
	status.Components["language"] = "ok"
	return status
}
