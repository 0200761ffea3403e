package services

import (
	"context"
	"time"

	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// orphanGracePeriod protects blobs from in-flight submissions whose row
// insert has not landed yet.
const orphanGracePeriod = 24 * time.Hour

// Sweeper reconciles blob storage with quote file records. Uploads write
// the blob before the row, so a crash or insert failure between the two
// leaves an unreferenced object behind. The sweep removes those once they
// are old enough to rule out an in-flight submission.
type Sweeper struct {
	db    *gorm.DB
	store BlobStore
	cron  *cron.Cron
}

func NewSweeper(db *gorm.DB, store BlobStore) *Sweeper {
	return &Sweeper{
		db:    db,
		store: store,
		cron:  cron.New(),
	}
}

// Start schedules the daily sweep.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.SweepOnce(ctx); err != nil {
			logger.Errorf("orphan blob sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepOnce deletes quote blobs older than the grace period that have no
// matching quote_files row.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	blobs, err := s.store.List(ctx, "quotes/")
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-orphanGracePeriod)

	var orphans []string
	for _, blob := range blobs {
		if blob.LastModified.After(cutoff) {
			continue
		}
		var count int64
		if err := s.db.Model(&models.QuoteFile{}).
			Where("storage_path = ?", blob.Key).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			orphans = append(orphans, blob.Key)
		}
	}

	if len(orphans) == 0 {
		return nil
	}

	if err := s.store.Remove(ctx, orphans...); err != nil {
		return err
	}
	logger.Infof("orphan blob sweep removed %d objects", len(orphans))
	return nil
}
