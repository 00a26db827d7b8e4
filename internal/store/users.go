package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateUser stores a new account. passwordHash must already be hashed.
func (s *Store) CreateUser(ctx context.Context, username, name, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if username == "" || name == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: username, name and password are required", ErrInvalidInput)
	}

	u := &User{Username: username, Name: name, PasswordHash: passwordHash}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(u).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", "userID", u.ID)
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
