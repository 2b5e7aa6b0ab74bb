package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/platform/requestctx"
	"github.com/lembar-pintar/studio/internal/services"
)

// writeServiceError maps service sentinels onto the error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest("invalid_input", strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")))
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NotFound(resource+"_not_found", resource+" not found"))
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "not allowed to access this "+resource, http.StatusForbidden))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError(resource+"_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrUnavailable):
		requestctx.Logger(ctx).Warn("dependency unavailable", zap.String("resource", resource), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError(resource+"_unavailable", resource+" service is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		requestctx.Logger(ctx).Error("request failed", zap.String("resource", resource), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}

func serviceUnavailable(ctx context.Context, w http.ResponseWriter, name string) {
	httpx.WriteError(ctx, w, httpx.NewError(name+"_unavailable", name+" service is unavailable", http.StatusServiceUnavailable))
}
