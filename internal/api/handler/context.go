package handler

import (
	"context"

	"github.com/dearxcorex/MakeItFast/internal/api/middleware"
)

// GetOperatorID retrieves the authenticated operator ID from the context.
// This is a convenience wrapper around middleware.GetOperatorID.
func GetOperatorID(ctx context.Context) string {
	return middleware.GetOperatorID(ctx)
}
