package services_test

import (
	"context"
	"testing"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/db/dbtest"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var kst = time.FixedZone("KST", 9*60*60)

type fixture struct {
	db       *gorm.DB
	clock    *clock.Mock
	calendar *clock.Calendar
	logger   *zap.Logger
}

// newFixture starts the clock at Friday 2026-10-16 10:00 KST.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := clock.NewMock(time.Date(2026, 10, 16, 10, 0, 0, 0, kst))
	return &fixture{
		db:       dbtest.Open(t),
		clock:    mock,
		calendar: clock.NewCalendar(mock, kst),
		logger:   zap.NewNop(),
	}
}

func (f *fixture) users(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		dbtest.CreateUser(t, f.db, id, nil)
	}
}

// testContext stands in for t.Context (Go 1.24+): it is cancelled when the
// test finishes.
func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
