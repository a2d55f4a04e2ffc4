package helpers

import (
	"context"

	"github.com/devopsblog/blog/pkg/config"
)

type sourcesCtxKey struct{}

// ContextWithSources stores the configuration service that produced the
// active config so commands can report where each value came from.
func ContextWithSources(ctx context.Context, svc config.Service) context.Context {
	return context.WithValue(ctx, sourcesCtxKey{}, svc)
}

// SourcesFromContext returns the stored configuration service, or nil.
func SourcesFromContext(ctx context.Context) config.Service {
	svc, ok := ctx.Value(sourcesCtxKey{}).(config.Service)
	if !ok {
		return nil
	}
	return svc
}
