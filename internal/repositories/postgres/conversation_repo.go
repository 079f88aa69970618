package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
	"gorm.io/gorm"
)

type ConversationRepo interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	// FindActive returns the user's most recently updated non-archived
	// conversation, or utils.ErrNotFound when none exists.
	FindActive(ctx context.Context, userID string) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string, archived *bool) ([]models.Conversation, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Touch(ctx context.Context, id string, at time.Time) error
	SetArchived(ctx context.Context, id string, archived bool) error
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) FindActive(ctx context.Context, userID string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Order("updated_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) ListByUser(ctx context.Context, userID string, archived *bool) ([]models.Conversation, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if archived != nil {
		q = q.Where("is_archived = ?", *archived)
	}

	var rows []models.Conversation
	err := q.Order("updated_at DESC").Find(&rows).Error
	return rows, err
}

func (r *conversationRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *conversationRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *conversationRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_archived": archived, "updated_at": time.Now().UTC()}).Error
}
