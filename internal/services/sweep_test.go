package services

import (
	"context"
	"testing"
	"time"

	"github.com/addisrender/backend/internal/models"
)

func TestSweepOnce_RemovesOnlyOldOrphans(t *testing.T) {
	db := testDB(t)
	store := newFakeBlobStore()

	// Referenced blob, old
	store.objects["quotes/2026/1/1/referenced.dwg"] = 10
	db.Create(&models.QuoteFile{
		UserID:      1,
		Title:       "Kept",
		StoragePath: "quotes/2026/1/1/referenced.dwg",
		FileName:    "model.dwg",
		Category:    CategoryProject,
	})

	// Orphaned blob, old enough to sweep
	store.objects["quotes/2026/1/1/orphan.dwg"] = 10

	sweeper := NewSweeper(db, store)
	if err := sweeper.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	if _, ok := store.objects["quotes/2026/1/1/referenced.dwg"]; !ok {
		t.Error("referenced blob was removed")
	}
	if _, ok := store.objects["quotes/2026/1/1/orphan.dwg"]; ok {
		t.Error("orphaned blob survived the sweep")
	}
}

func TestSweepOnce_SparesRecentOrphans(t *testing.T) {
	db := testDB(t)
	store := newFakeBlobStore()

	// A fresh orphan may belong to an in-flight submission
	store.objects["quotes/2026/8/28/fresh.dwg"] = 10
	store.recent = map[string]time.Time{
		"quotes/2026/8/28/fresh.dwg": time.Now(),
	}

	sweeper := NewSweeper(db, store)
	if err := sweeper.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	if _, ok := store.objects["quotes/2026/8/28/fresh.dwg"]; !ok {
		t.Error("recent orphan was removed inside the grace period")
	}
}
