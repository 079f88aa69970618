package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
	"gorm.io/gorm"
)

// EntryFilter narrows an owner-scoped listing. Zero values mean "no filter".
type EntryFilter struct {
	Mood      string
	EntryType string
	Search    string // matched against title and content, case-insensitive
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type CountBucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type EntryStats struct {
	TotalEntries     int64         `json:"total_entries"`
	TotalWords       int64         `json:"total_words"`
	MoodDistribution []CountBucket `json:"mood_distribution"`
	TypeDistribution []CountBucket `json:"type_distribution"`
}

type EntryRepo interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByID(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	Update(ctx context.Context, entry *models.JournalEntry) error
	// Delete removes the user's entry and reports how many rows matched.
	Delete(ctx context.Context, userID, id string) (int64, error)
	// ExistsAnywhere reports whether the entry exists regardless of owner.
	ExistsAnywhere(ctx context.Context, id string) (bool, error)
	// List returns the filtered page newest-first plus the total match count.
	List(ctx context.Context, userID string, f EntryFilter) ([]models.JournalEntry, int64, error)
	// RecentSince returns up to limit entries created at or after since,
	// newest first. limit <= 0 means no cap.
	RecentSince(ctx context.Context, userID string, since time.Time, limit int) ([]models.JournalEntry, error)
	Stats(ctx context.Context, userID string) (*EntryStats, error)
}

type entryRepo struct {
	db *gorm.DB
}

func NewEntryRepo(db *gorm.DB) EntryRepo {
	return &entryRepo{db: db}
}

func (r *entryRepo) Create(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *entryRepo) GetByID(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	var row models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *entryRepo) Update(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *entryRepo) Delete(ctx context.Context, userID, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.JournalEntry{})
	return res.RowsAffected, res.Error
}

func (r *entryRepo) ExistsAnywhere(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *entryRepo) List(ctx context.Context, userID string, f EntryFilter) ([]models.JournalEntry, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("user_id = ?", userID)

	if f.Mood != "" {
		q = q.Where("mood = ?", f.Mood)
	}
	if f.EntryType != "" {
		q = q.Where("entry_type = ?", f.EntryType)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	if f.Search != "" {
		pat := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("lower(title) LIKE ? OR lower(content) LIKE ?", pat, pat)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	size := f.PageSize
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	var rows []models.JournalEntry
	err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	return rows, total, err
}

func (r *entryRepo) RecentSince(ctx context.Context, userID string, since time.Time, limit int) ([]models.JournalEntry, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.JournalEntry
	err := q.Find(&rows).Error
	return rows, err
}

func (r *entryRepo) Stats(ctx context.Context, userID string) (*EntryStats, error) {
	stats := &EntryStats{
		MoodDistribution: []CountBucket{},
		TypeDistribution: []CountBucket{},
	}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.JournalEntry{}).
			Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.TotalEntries).Error; err != nil {
		return nil, err
	}

	if err := base().Select("coalesce(sum(word_count), 0)").Scan(&stats.TotalWords).Error; err != nil {
		return nil, err
	}

	err := base().
		Select("mood as value, count(*) as count").
		Group("mood").
		Order("count DESC").
		Scan(&stats.MoodDistribution).Error
	if err != nil {
		return nil, err
	}

	err = base().
		Select("entry_type as value, count(*) as count").
		Group("entry_type").
		Order("count DESC").
		Scan(&stats.TypeDistribution).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
