package services_test

import (
	"context"
	"testing"

	"channelgrab/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "download")
	ctx = services.WithMediaID(ctx, "14001")

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "download" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if id, ok := services.MediaIDFromContext(ctx); !ok || id != "14001" {
		t.Fatalf("unexpected media id: %v %v", id, ok)
	}
}

func TestBlankValuesAreIgnored(t *testing.T) {
	base := services.WithRunID(context.Background(), "run-1")
	ctx := services.WithStage(services.WithRunID(base, ""), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if rid, _ := services.RunIDFromContext(ctx); rid != "run-1" {
		t.Fatalf("blank run id should not shadow the existing one, got %q", rid)
	}
	if _, ok := services.MediaIDFromContext(context.Background()); ok {
		t.Fatal("expected no media id on a bare context")
	}
}
