package repository

import (
	"context"
	"fmt"
	"time"

	"bpmshuffle/logger"
	"bpmshuffle/model"

	"gorm.io/gorm"
)

const importBatchSize = 500

// LibraryTrack is the stored form of a library track.
type LibraryTrack struct {
	ID            uint   `gorm:"primaryKey"`
	Title         string `gorm:"size:255;not null"`
	Artist        string `gorm:"size:255;index"`
	Album         string `gorm:"size:255"`
	BPM           int    `gorm:"column:bpm;index"`
	LengthSeconds int    `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName overrides the GORM default.
func (LibraryTrack) TableName() string {
	return "library_tracks"
}

func (r LibraryTrack) toModel() model.Track {
	return model.Track{
		Title:  r.Title,
		Artist: r.Artist,
		Album:  r.Album,
		Tempo:  r.BPM,
		Length: r.LengthSeconds,
	}
}

// TrackRepository defines the interface for library storage.
type TrackRepository interface {
	ImportTracks(ctx context.Context, tracks []model.Track) (int, error)
	ListTracks(ctx context.Context) ([]model.Track, error)
	CountTracks(ctx context.Context) (int64, error)
	ClearTracks(ctx context.Context) error
}

// gormTrackRepository implements TrackRepository on top of GORM.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a repository backed by gdb.
func NewGormTrackRepository(gdb *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: gdb}
}

// AutoMigrate creates or updates the library table.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&LibraryTrack{}); err != nil {
		return fmt.Errorf("failed to migrate library_tracks: %w", err)
	}
	return nil
}

// ImportTracks inserts tracks in batches and returns how many were stored.
func (r *gormTrackRepository) ImportTracks(ctx context.Context, tracks []model.Track) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}

	records := make([]LibraryTrack, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, LibraryTrack{
			Title:         t.Title,
			Artist:        t.Artist,
			Album:         t.Album,
			BPM:           t.Tempo,
			LengthSeconds: t.Length,
		})
	}

	if err := r.db.WithContext(ctx).CreateInBatches(records, importBatchSize).Error; err != nil {
		return 0, fmt.Errorf("failed to import tracks: %w", err)
	}
	logger.Info("library tracks imported", logger.Int("count", len(records)))
	return len(records), nil
}

// ListTracks returns the whole library in insertion order.
func (r *gormTrackRepository) ListTracks(ctx context.Context) ([]model.Track, error) {
	var records []LibraryTrack
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	tracks := make([]model.Track, 0, len(records))
	for _, rec := range records {
		tracks = append(tracks, rec.toModel())
	}
	return tracks, nil
}

// CountTracks returns the number of stored tracks.
func (r *gormTrackRepository) CountTracks(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&LibraryTrack{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// ClearTracks removes every stored track.
func (r *gormTrackRepository) ClearTracks(ctx context.Context) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&LibraryTrack{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return nil
}
