package model

import "context"

// RequestMeta describes the caller of an operation. It is copied into audit events.
type RequestMeta struct {
	UserID        string
	IPAddress     string
	UserAgent     string
	CorrelationID string
	Source        string
}

type requestMetaKey struct{}

// ContextWithRequestMeta attaches meta to ctx
func ContextWithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request meta of ctx. A zero value is returned when none is set.
func RequestMetaFromContext(ctx context.Context) *RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(*RequestMeta); ok && meta != nil {
		return meta
	}
	return &RequestMeta{}
}
