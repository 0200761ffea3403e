package services

import (
	"context"
	"errors"
	"testing"

	"github.com/addisrender/backend/internal/models"
)

type failingRemoveStore struct {
	*fakeBlobStore
}

func (f *failingRemoveStore) Remove(ctx context.Context, keys ...string) error {
	return errors.New("storage unavailable")
}

func TestDeleteFile_RemovesBlobThenRow(t *testing.T) {
	db := testDB(t)
	store := newFakeBlobStore()
	store.objects["quotes/2026/8/28/a.dwg"] = 10

	file := models.QuoteFile{
		UserID:      1,
		Title:       "Tower",
		StoragePath: "quotes/2026/8/28/a.dwg",
		FileName:    "a.dwg",
		Category:    CategoryProject,
	}
	db.Create(&file)

	svc := NewAdminService(db, store)
	if err := svc.DeleteFile(context.Background(), file.ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if _, ok := store.objects[file.StoragePath]; ok {
		t.Error("blob survived the delete")
	}
	var count int64
	db.Model(&models.QuoteFile{}).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 rows, got %d", count)
	}
}

func TestDeleteFile_BlobFailureKeepsRow(t *testing.T) {
	db := testDB(t)
	store := &failingRemoveStore{newFakeBlobStore()}

	file := models.QuoteFile{
		UserID:      1,
		Title:       "Tower",
		StoragePath: "quotes/2026/8/28/b.dwg",
		FileName:    "b.dwg",
		Category:    CategoryProject,
	}
	db.Create(&file)

	svc := NewAdminService(db, store)
	if err := svc.DeleteFile(context.Background(), file.ID); err == nil {
		t.Fatal("expected an error when blob removal fails")
	}

	// The row must keep pointing at the object
	var count int64
	db.Model(&models.QuoteFile{}).Count(&count)
	if count != 1 {
		t.Errorf("expected the row to survive, got %d rows", count)
	}
}

func TestStats_Counts(t *testing.T) {
	db := testDB(t)
	db.Create(&models.User{Email: "a@example.com", Role: "user", IsActive: true})
	db.Create(&models.ContactSubmission{Name: "N", Email: "n@example.com", Message: "hi", Status: ContactStatusNew})
	db.Create(&models.ContactSubmission{Name: "M", Email: "m@example.com", Message: "yo", Status: ContactStatusRead})

	svc := NewAdminService(db, newFakeBlobStore())
	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Users != 1 || stats.Contacts != 2 || stats.NewContacts != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
