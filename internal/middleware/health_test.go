package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandlerAllChecksPassing(t *testing.T) {
	checkers := map[string]HealthChecker{
		"storage": CheckerFunc(func(ctx context.Context) error { return nil }),
	}

	rec := httptest.NewRecorder()
	HealthHandler(checkers)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("status field = %q, want healthy", body.Status)
	}
	if body.Checks["storage"].Status != "healthy" {
		t.Fatalf("storage check = %+v", body.Checks["storage"])
	}
}

func TestHealthHandlerReportsFailingDependency(t *testing.T) {
	checkers := map[string]HealthChecker{
		"database": CheckerFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
		"storage":  CheckerFunc(func(ctx context.Context) error { return nil }),
	}

	rec := httptest.NewRecorder()
	HealthHandler(checkers)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Fatalf("status field = %q, want unhealthy", body.Status)
	}
	if body.Checks["database"].Message != "connection refused" {
		t.Fatalf("database check = %+v", body.Checks["database"])
	}
	if body.Checks["storage"].Status != "healthy" {
		t.Fatalf("healthy check dragged down: %+v", body.Checks["storage"])
	}
}

func TestHealthHandlerNoCheckersRegistered(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (absence is not failure)", rec.Code)
	}
}
