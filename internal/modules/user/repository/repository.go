package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/contentscore/internal/entity"
	"anoa.com/contentscore/pkg/apperror"
	"gorm.io/gorm"
)

// UserRepository reads the user directory.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	Usernames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("user %d not found", id))
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) Usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []entity.User
	if err := r.db.WithContext(ctx).Select("id, username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
