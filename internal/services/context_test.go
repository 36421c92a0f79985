package services_test

import (
	"context"
	"testing"

	"splice/internal/services"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.CatalogFromContext(ctx); ok {
		t.Fatal("expected no catalog on bare context")
	}

	ctx = services.WithCatalog(ctx, "spidey")
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithJobIndex(ctx, 0)

	if name, ok := services.CatalogFromContext(ctx); !ok || name != "spidey" {
		t.Fatalf("unexpected catalog %q", name)
	}
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q", id)
	}
	if idx, ok := services.JobIndexFromContext(ctx); !ok || idx != 0 {
		t.Fatalf("unexpected job index %d", idx)
	}
}

func TestWithCatalogIgnoresEmpty(t *testing.T) {
	ctx := services.WithCatalog(context.Background(), "")
	if _, ok := services.CatalogFromContext(ctx); ok {
		t.Fatal("expected empty catalog to be ignored")
	}
}
