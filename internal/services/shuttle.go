package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotState is a slot as seen by one rider.
type SlotState string

const (
	SlotUpcoming SlotState = "upcoming" // 예약 창 열리기 전
	SlotOpen     SlotState = "open"
	SlotLocked   SlotState = "locked" // 앞선 슬롯을 먼저 예약해야 함
	SlotReserved SlotState = "reserved"
	SlotDeparted SlotState = "departed"
)

// Slot is one departure with its state for the viewer. Occupancy is nil
// unless the viewer holds a seat.
type Slot struct {
	models.SlotKey
	Departure time.Time `json:"departure"`
	State     SlotState `json:"state"`
	Occupancy *int      `json:"occupancy"`
	Capacity  int       `json:"capacity,omitempty"`
}

// SlotUpdateScheduler is told about membership changes after they commit.
type SlotUpdateScheduler interface {
	ScheduleUpdate(key models.SlotKey)
}

// ShuttleOptions are the booking window rules.
type ShuttleOptions struct {
	LeadWindow time.Duration // booking opens this long before departure
	Cooldown   time.Duration // penalty after a cancellation
}

// ShuttleService manages per-slot rider sets and cancellation penalties.
type ShuttleService struct {
	db        *gorm.DB
	calendar  *clock.Calendar
	timetable *Timetable
	penalties PenaltyStore
	updates   SlotUpdateScheduler
	opts      ShuttleOptions
	logger    *zap.Logger
}

func NewShuttle(
	db *gorm.DB,
	calendar *clock.Calendar,
	timetable *Timetable,
	penalties PenaltyStore,
	updates SlotUpdateScheduler,
	opts ShuttleOptions,
	logger *zap.Logger,
) *ShuttleService {
	return &ShuttleService{
		db:        db,
		calendar:  calendar,
		timetable: timetable,
		penalties: penalties,
		updates:   updates,
		opts:      opts,
		logger:    logger.Named("shuttle_service"),
	}
}

// departure resolves a slot key against the timetable.
func (s *ShuttleService) departure(key models.SlotKey) (time.Time, []string, error) {
	day, err := s.calendar.ParseDate(key.Date)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %v", ErrSlotNotFound, err)
	}
	times, err := s.timetable.Departures(key.Route, key.Direction, day.Weekday())
	if err != nil {
		return time.Time{}, nil, err
	}
	for _, hhmm := range times {
		if hhmm == key.Time {
			at, err := s.calendar.At(key.Date, hhmm)
			if err != nil {
				return time.Time{}, nil, err
			}
			return at, times, nil
		}
	}
	return time.Time{}, nil, ErrSlotNotFound
}

// Reserve adds the user to the slot. Reserving a held seat again is a no-op.
func (s *ShuttleService) Reserve(ctx context.Context, key models.SlotKey, userID string) error {
	departure, times, err := s.departure(key)
	if err != nil {
		return err
	}

	now := s.calendar.Now()
	if !now.Before(departure) {
		return ErrSlotDeparted
	}
	if now.Before(departure.Add(-s.opts.LeadWindow)) {
		return ErrSlotNotOpen
	}

	until, active, err := s.penalties.Until(ctx, penaltyKey(userID, key.Route, key.Direction), now)
	if err != nil {
		return err
	}
	if active {
		return &PenaltyActiveError{Remaining: until.Sub(now)}
	}

	var joined bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, userID); err != nil {
			return err
		}

		held, err := isMember(tx, key.ID(), userID)
		if err != nil || held {
			return err
		}

		// 1. 앞선 미출발 슬롯을 모두 예약했는지 확인
		for _, hhmm := range times {
			if hhmm >= key.Time {
				break
			}
			earlier := models.SlotKey{Date: key.Date, Route: key.Route, Direction: key.Direction, Time: hhmm}
			at, err := s.calendar.At(earlier.Date, earlier.Time)
			if err != nil {
				return err
			}
			if !now.Before(at) {
				continue
			}
			held, err := isMember(tx, earlier.ID(), userID)
			if err != nil {
				return err
			}
			if !held {
				return ErrSlotLocked
			}
		}

		// 2. 정원 확인
		if limit := s.timetable.Capacity(key.Route); limit > 0 {
			var riders int64
			err := tx.Model(&models.ShuttleMember{}).Where("reservation_id = ?", key.ID()).Count(&riders).Error
			if err != nil {
				return fmt.Errorf("failed to count riders: %w", translateStoreError(err))
			}
			if riders >= int64(limit) {
				return ErrCapacityExceeded
			}
		}

		// 3. 슬롯 문서는 첫 예약 때 생성
		reservation := models.ShuttleReservation{
			ID:        key.ID(),
			Date:      key.Date,
			Route:     key.Route,
			Direction: key.Direction,
			Time:      key.Time,
			UpdatedAt: now.UTC(),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&reservation).Error
		if err != nil {
			return fmt.Errorf("failed to upsert reservation: %w", translateStoreError(err))
		}

		member := models.ShuttleMember{ReservationID: key.ID(), UserID: userID, CreatedAt: now.UTC()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
		if res.Error != nil {
			return fmt.Errorf("failed to add rider: %w", translateStoreError(res.Error))
		}
		joined = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return err
	}

	if joined {
		s.logger.Info("Shuttle seat reserved",
			zap.String("user_id", userID),
			zap.String("slot", key.ID()))
		s.scheduleUpdate(key)
	}
	return nil
}

// Cancel removes the user from the slot and starts the cancellation penalty
// for the route direction.
func (s *ShuttleService) Cancel(ctx context.Context, key models.SlotKey, userID string) error {
	departure, _, err := s.departure(key)
	if err != nil {
		return err
	}
	now := s.calendar.Now()
	if !now.Before(departure) {
		return ErrSlotDeparted
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, userID); err != nil {
			return err
		}
		res := tx.Where("reservation_id = ? AND user_id = ?", key.ID(), userID).Delete(&models.ShuttleMember{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove rider: %w", translateStoreError(res.Error))
		}
		if res.RowsAffected == 0 {
			return ErrNotReserved
		}
		err := tx.Model(&models.ShuttleReservation{}).
			Where("id = ?", key.ID()).
			UpdateColumn("updated_at", now.UTC()).Error
		if err != nil {
			return fmt.Errorf("failed to touch reservation: %w", translateStoreError(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.scheduleUpdate(key)

	// 취소 자체는 이미 반영됨; 패널티 저장 실패는 기록만 남김
	until := now.Add(s.opts.Cooldown)
	if err := s.penalties.Start(ctx, penaltyKey(userID, key.Route, key.Direction), now, until); err != nil {
		s.logger.Error("Failed to start cancellation penalty",
			zap.String("user_id", userID),
			zap.String("slot", key.ID()),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Shuttle seat cancelled",
		zap.String("user_id", userID),
		zap.String("slot", key.ID()),
		zap.Time("penalty_until", until))
	return nil
}

// PenaltyRemaining reports how long the user must wait before reserving on
// the route direction again.
func (s *ShuttleService) PenaltyRemaining(ctx context.Context, userID, route, direction string) (time.Duration, error) {
	now := s.calendar.Now()
	until, active, err := s.penalties.Until(ctx, penaltyKey(userID, route, direction), now)
	if err != nil || !active {
		return 0, err
	}
	return until.Sub(now), nil
}

// Slots lists today's departures of a route direction as seen by viewerID.
func (s *ShuttleService) Slots(ctx context.Context, route, direction, viewerID string) ([]Slot, error) {
	now := s.calendar.Now()
	date := s.calendar.DateOf(now)
	times, err := s.timetable.Departures(route, direction, now.Weekday())
	if err != nil {
		return nil, err
	}

	keys := make([]models.SlotKey, 0, len(times))
	ids := make([]string, 0, len(times))
	for _, hhmm := range times {
		key := models.SlotKey{Date: date, Route: route, Direction: direction, Time: hhmm}
		keys = append(keys, key)
		ids = append(ids, key.ID())
	}

	var members []models.ShuttleMember
	if len(ids) > 0 {
		err := s.db.WithContext(ctx).Where("reservation_id IN ?", ids).Find(&members).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load riders: %w", translateStoreError(err))
		}
	}
	occupancy := make(map[string]int, len(ids))
	held := make(map[string]bool)
	for _, m := range members {
		occupancy[m.ReservationID]++
		if m.UserID == viewerID {
			held[m.ReservationID] = true
		}
	}

	slots := make([]Slot, 0, len(keys))
	blocked := false // an earlier live slot is not held by the viewer
	for _, key := range keys {
		departure, err := s.calendar.At(key.Date, key.Time)
		if err != nil {
			return nil, err
		}
		slot := Slot{SlotKey: key, Departure: departure, Capacity: s.timetable.Capacity(route)}
		switch {
		case !now.Before(departure):
			slot.State = SlotDeparted
		case held[key.ID()]:
			slot.State = SlotReserved
			n := occupancy[key.ID()]
			slot.Occupancy = &n
		case now.Before(departure.Add(-s.opts.LeadWindow)):
			slot.State = SlotUpcoming
		case blocked:
			slot.State = SlotLocked
		default:
			slot.State = SlotOpen
		}
		if slot.State != SlotDeparted && !held[key.ID()] {
			blocked = true
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Members lists the riders of a slot in join order.
func (s *ShuttleService) Members(ctx context.Context, key models.SlotKey) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.ShuttleMember{}).
		Where("reservation_id = ?", key.ID()).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load riders: %w", translateStoreError(err))
	}
	return ids, nil
}

func (s *ShuttleService) scheduleUpdate(key models.SlotKey) {
	if s.updates != nil {
		s.updates.ScheduleUpdate(key)
	}
}

func isMember(tx *gorm.DB, reservationID, userID string) (bool, error) {
	var m models.ShuttleMember
	err := tx.Where("reservation_id = ? AND user_id = ?", reservationID, userID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up rider: %w", translateStoreError(err))
	}
	return true, nil
}
