package services

import (
	"context"
	"errors"
	"fmt"

	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserService provisions and reads user profiles. Accounts themselves are
// owned by the auth platform; a row appears the first time a user calls in.
type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUser(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger.Named("user_service")}
}

// Ensure returns the user row for id, creating it on first sight.
func (s *UserService) Ensure(ctx context.Context, id string) (*models.User, error) {
	user := models.User{ID: id, Nickname: id}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to provision user %s: %w", id, translateStoreError(err))
	}
	return s.Get(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return loadUser(s.db.WithContext(ctx), id)
}

func loadUser(tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, translateStoreError(err))
	}
	return &user, nil
}

// loadActiveUser loads id and refuses suspended accounts.
func loadActiveUser(tx *gorm.DB, id string) (*models.User, error) {
	user, err := loadUser(tx, id)
	if err != nil {
		return nil, err
	}
	if user.Suspension().Suspended {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

// adjustScore adds delta to the user's trust score with a store-side
// increment. An unset score starts from the base score.
func adjustScore(tx *gorm.DB, userID string, delta int) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("trust_score", gorm.Expr("COALESCE(trust_score, ?) + ?", models.BaseTrustScore, delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust trust score of %s: %w", userID, translateStoreError(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
