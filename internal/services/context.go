package services

import "context"

type contextKey string

const (
	catalogKey  contextKey = "catalog"
	runIDKey    contextKey = "run_id"
	jobIndexKey contextKey = "job_index"
)

// WithCatalog annotates context with the catalog name being processed.
func WithCatalog(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, catalogKey, name)
}

// CatalogFromContext returns the catalog name if present.
func CatalogFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(catalogKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the pipeline run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJobIndex annotates context with a normalization job index.
func WithJobIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, jobIndexKey, index)
}

// JobIndexFromContext extracts the normalization job index if present.
func JobIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(jobIndexKey).(int)
	return v, ok
}
