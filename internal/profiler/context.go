package profiler

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Profiler) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the profiler carried by ctx, or Default.
func FromContext(ctx context.Context) *Profiler {
	if p, ok := ctx.Value(contextKey{}).(*Profiler); ok && p != nil {
		return p
	}
	return Default
}
