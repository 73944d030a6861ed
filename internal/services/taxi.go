package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePartyInput describes a new taxi party.
type CreatePartyInput struct {
	DepartureTime   time.Time
	PickupLocation  string
	DropoffLocation string
	MemberLimit     int
}

// Settlement reports what a finalize changed.
type Settlement struct {
	PartyID         string   `json:"party_id"`
	Rewarded        []string `json:"rewarded"`         // present, +2 landed
	AlreadyRewarded []string `json:"already_rewarded"` // present, rewarded earlier today
	Penalized       []string `json:"penalized"`        // absent, -7
	CreatorRewarded bool     `json:"creator_rewarded"`
}

// TaxiService runs the taxi party lifecycle and its settlement.
type TaxiService struct {
	db       *gorm.DB
	calendar *clock.Calendar
	logger   *zap.Logger
}

func NewTaxi(db *gorm.DB, calendar *clock.Calendar, logger *zap.Logger) *TaxiService {
	return &TaxiService{db: db, calendar: calendar, logger: logger.Named("taxi_service")}
}

func withMembers(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	})
}

func loadParty(tx *gorm.DB, partyID string) (*models.TaxiParty, error) {
	var party models.TaxiParty
	if err := withMembers(tx).First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to load taxi party: %w", translateStoreError(err))
	}
	return &party, nil
}

// Create opens a party with the creator as its first member.
func (s *TaxiService) Create(ctx context.Context, creatorID string, in CreatePartyInput) (*models.TaxiParty, error) {
	now := s.calendar.Now()
	switch {
	case in.MemberLimit < 1:
		return nil, fmt.Errorf("%w: member limit must be at least 1", ErrInvalidParty)
	case strings.TrimSpace(in.PickupLocation) == "" || strings.TrimSpace(in.DropoffLocation) == "":
		return nil, fmt.Errorf("%w: pickup and dropoff are required", ErrInvalidParty)
	case !in.DepartureTime.After(now):
		return nil, fmt.Errorf("%w: departure must be in the future", ErrInvalidParty)
	}

	party := &models.TaxiParty{
		CreatorID:       creatorID,
		DepartureTime:   in.DepartureTime.UTC(),
		PickupLocation:  strings.TrimSpace(in.PickupLocation),
		DropoffLocation: strings.TrimSpace(in.DropoffLocation),
		MemberLimit:     in.MemberLimit,
		Members:         []models.TaxiPartyMember{{UserID: creatorID, JoinedAt: now.UTC()}},
		CreatedAt:       now.UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, creatorID); err != nil {
			return err
		}
		if err := tx.Create(party).Error; err != nil {
			return fmt.Errorf("failed to create taxi party: %w", translateStoreError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Taxi party created",
		zap.String("party_id", party.ID),
		zap.String("creator_id", creatorID),
		zap.Int("member_limit", party.MemberLimit))
	return party, nil
}

func (s *TaxiService) Get(ctx context.Context, partyID string) (*models.TaxiParty, error) {
	return loadParty(s.db.WithContext(ctx), partyID)
}

// List returns parties that have not departed yet, soonest first.
func (s *TaxiService) List(ctx context.Context) ([]models.TaxiParty, error) {
	var parties []models.TaxiParty
	err := withMembers(s.db.WithContext(ctx)).
		Where("departure_time > ?", s.calendar.Now().UTC()).
		Order("departure_time ASC").
		Find(&parties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list taxi parties: %w", translateStoreError(err))
	}
	return parties, nil
}

// Join adds userID to the party. The member limit is checked inside the
// transaction, so concurrent joins may only overshoot where the store allows it.
func (s *TaxiService) Join(ctx context.Context, partyID, userID string) (*models.TaxiParty, error) {
	now := s.calendar.Now()
	var party *models.TaxiParty
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, userID); err != nil {
			return err
		}
		var err error
		if party, err = loadParty(tx, partyID); err != nil {
			return err
		}
		if !now.Before(party.DepartureTime) {
			return ErrPartyDeparted
		}
		if party.HasMember(userID) {
			return ErrAlreadyPartyMember
		}
		creator, err := loadUser(tx, party.CreatorID)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if creator != nil && creator.HasBlocked(userID) {
			return ErrBlocked
		}
		if len(party.Members) >= party.MemberLimit {
			return ErrCapacityExceeded
		}

		member := models.TaxiPartyMember{PartyID: partyID, UserID: userID, JoinedAt: now.UTC()}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to join taxi party: %w", translateStoreError(err))
		}
		party.Members = append(party.Members, member)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Taxi party joined", zap.String("party_id", partyID), zap.String("user_id", userID))
	return party, nil
}

// Leave removes a non-creator member.
func (s *TaxiService) Leave(ctx context.Context, partyID, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		party, err := loadParty(tx, partyID)
		if err != nil {
			return err
		}
		if party.CreatorID == userID {
			return ErrCreatorCannotLeave
		}
		res := tx.Where("party_id = ? AND user_id = ?", partyID, userID).Delete(&models.TaxiPartyMember{})
		if res.Error != nil {
			return fmt.Errorf("failed to leave taxi party: %w", translateStoreError(res.Error))
		}
		if res.RowsAffected == 0 {
			return ErrNotPartyMember
		}
		return nil
	})
}

// Delete removes the party without settling it. Only the creator may do this.
func (s *TaxiService) Delete(ctx context.Context, partyID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		party, err := loadParty(tx, partyID)
		if err != nil {
			return err
		}
		if party.CreatorID != userID {
			return ErrNotPartyCreator
		}
		return deleteParty(tx, partyID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Taxi party deleted", zap.String("party_id", partyID))
	return nil
}

func deleteParty(tx *gorm.DB, partyID string) error {
	if err := tx.Where("party_id = ?", partyID).Delete(&models.TaxiPartyMember{}).Error; err != nil {
		return fmt.Errorf("failed to delete taxi party members: %w", translateStoreError(err))
	}
	res := tx.Where("id = ?", partyID).Delete(&models.TaxiParty{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete taxi party: %w", translateStoreError(res.Error))
	}
	// 동시에 정산된 경우
	if res.RowsAffected != 1 {
		return ErrPartyNotFound
	}
	return nil
}

// Finalize settles the party and deletes it in the same transaction.
// attendance maps member ids to presence; members left out are neither
// rewarded nor penalized, and the creator's own entry is ignored.
func (s *TaxiService) Finalize(
	ctx context.Context, partyID, creatorID string, attendance map[string]bool,
) (*Settlement, error) {
	today := s.calendar.Today()
	settlement := &Settlement{PartyID: partyID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, creatorID); err != nil {
			return err
		}
		party, err := loadParty(tx, partyID)
		if err != nil {
			return err
		}
		if party.CreatorID != creatorID {
			return ErrNotPartyCreator
		}
		for userID := range attendance {
			if !party.HasMember(userID) {
				return fmt.Errorf("%w: %s", ErrNotPartyMember, userID)
			}
		}

		// 1. 멤버별 정산 (참석 +2 하루 1회, 노쇼 -7 제한 없음)
		anyPresent := false
		for _, userID := range party.MemberIDs() {
			present, marked := attendance[userID]
			if userID == creatorID || !marked {
				continue
			}
			if !present {
				if err := adjustScore(tx, userID, PointsTaxiNoShow); err != nil {
					return err
				}
				settlement.Penalized = append(settlement.Penalized, userID)
				continue
			}
			anyPresent = true
			rewarded, err := rewardTaxiOncePerDay(tx, userID, today)
			if err != nil {
				return err
			}
			if rewarded {
				settlement.Rewarded = append(settlement.Rewarded, userID)
			} else {
				settlement.AlreadyRewarded = append(settlement.AlreadyRewarded, userID)
			}
		}

		// 2. 방장 보상 (참석자가 있을 때만)
		if anyPresent {
			if settlement.CreatorRewarded, err = rewardTaxiOncePerDay(tx, creatorID, today); err != nil {
				return err
			}
		}

		// 3. 파티 삭제
		return deleteParty(tx, partyID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Taxi party finalized",
		zap.String("party_id", partyID),
		zap.Strings("rewarded", settlement.Rewarded),
		zap.Strings("penalized", settlement.Penalized),
		zap.Bool("creator_rewarded", settlement.CreatorRewarded))
	return settlement, nil
}

// rewardTaxiOncePerDay grants the attendance reward unless the user already
// received one on today's date. The check and the write are one statement.
func rewardTaxiOncePerDay(tx *gorm.DB, userID, today string) (bool, error) {
	res := tx.Model(&models.User{}).
		Where("id = ? AND (last_taxi_date IS NULL OR last_taxi_date <> ?)", userID, today).
		UpdateColumns(map[string]any{
			"trust_score":    gorm.Expr("COALESCE(trust_score, ?) + ?", models.BaseTrustScore, PointsTaxiAttend),
			"last_taxi_date": today,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reward %s: %w", userID, translateStoreError(res.Error))
	}
	return res.RowsAffected == 1, nil
}
