package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"teachassist/internal/model"
)

// UserRepository stores instructor accounts. Lookups return nil, nil when no
// account matches.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create instructor failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	return r.first("username", r.db.Where("username = ?", username))
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	return r.first("email", r.db.Where("email = ?", email))
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	return r.first("id", r.db.Where("id = ?", id))
}

// UpdateDisplayName changes the instructor's shown name. It
// reports false when no account has the id.
func (r *UserRepository) UpdateDisplayName(id uint, displayName string) (bool, error) {
	res := r.db.Model(&model.User{}).Where("id = ?", id).Update("display_name", displayName)
	if res.Error != nil {
		return false, fmt.Errorf("update instructor display name failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) first(by string, q *gorm.DB) (*model.User, error) {
	var user model.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query instructor by %s failed: %w", by, err)
	}
	return &user, nil
}
