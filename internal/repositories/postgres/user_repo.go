package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
	"gorm.io/gorm"
)

type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// FindByIdentifier resolves a login identifier that may be either an
	// email or a username. One keyed lookup; the identifier's lexical form
	// ('@' present or not) picks the column.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	column := "username"
	if strings.Contains(identifier, "@") {
		column = "email"
	}

	var row models.User
	err := r.db.WithContext(ctx).
		Where("lower("+column+") = lower(?)", identifier).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepo) ExistsEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("lower(email) = lower(?)", email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("lower(username) = lower(?)", username).
		Count(&count).Error
	return count > 0, err
}
