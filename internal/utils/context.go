package utils

import (
	"context"
)

type contextKey string

const ContextRequestIDKey contextKey = "requestID"

func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	reqID := ctx.Value(ContextRequestIDKey)
	reqIDStr, ok := reqID.(string)
	return reqIDStr, ok
}
