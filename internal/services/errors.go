package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrIneligible is a normal decision outcome, not a failure.
	ErrIneligible       = errors.New("grant not eligible")
	ErrDuplicateReport  = errors.New("already reported")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrPenaltyActive    = errors.New("cancellation penalty active")
	// ErrPermissionDenied is returned for writes by suspended users.
	ErrPermissionDenied = errors.New("permission denied: account suspended")

	ErrUserNotFound       = errors.New("user not found")
	ErrSelfAction         = errors.New("cannot target yourself")
	ErrInvalidPoints      = errors.New("invalid point delta")
	ErrSlotNotFound       = errors.New("no such shuttle slot")
	ErrSlotNotOpen        = errors.New("shuttle slot is not open for booking yet")
	ErrSlotDeparted       = errors.New("shuttle slot has departed")
	ErrSlotLocked         = errors.New("an earlier shuttle slot must be reserved first")
	ErrNotReserved        = errors.New("no reservation for this slot")
	ErrPartyNotFound      = errors.New("taxi party not found")
	ErrPartyDeparted      = errors.New("taxi party has departed")
	ErrNotPartyCreator    = errors.New("only the party creator can do this")
	ErrNotPartyMember     = errors.New("user is not a member of this party")
	ErrAlreadyPartyMember = errors.New("user is already a member of this party")
	ErrCreatorCannotLeave = errors.New("party creator cannot leave; delete the party instead")
	ErrBlocked            = errors.New("blocked by the party creator")
	ErrInvalidParty       = errors.New("invalid taxi party")
)

// IneligibleError carries the reason a positive grant was refused.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("grant not eligible: %s", e.Reason)
}

func (e *IneligibleError) Is(target error) bool { return target == ErrIneligible }

// PenaltyActiveError carries the time left on a shuttle cancellation penalty.
type PenaltyActiveError struct {
	Remaining time.Duration
}

func (e *PenaltyActiveError) Error() string {
	return fmt.Sprintf("cancellation penalty active for %s", e.Remaining.Round(time.Second))
}

func (e *PenaltyActiveError) Is(target error) bool { return target == ErrPenaltyActive }

// RemainingSeconds rounds up so the client never sees 0 while still blocked.
func (e *PenaltyActiveError) RemainingSeconds() int {
	secs := int(e.Remaining / time.Second)
	if e.Remaining%time.Second != 0 {
		secs++
	}
	return secs
}

// translateStoreError maps store permission failures onto ErrPermissionDenied
// and leaves every other error untouched.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
	}
	return err
}
