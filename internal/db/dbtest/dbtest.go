// Package dbtest opens throwaway SQLite databases with the production schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"campuslink/internal/db"
	"campuslink/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

// CreateUser inserts a user row, optionally with an explicit trust score.
func CreateUser(t *testing.T, conn *gorm.DB, id string, score *int) *models.User {
	t.Helper()
	user := &models.User{ID: id, Nickname: id, TrustScore: score}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// ReloadUser reads the current row for id.
func ReloadUser(t *testing.T, conn *gorm.DB, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", id).Error)
	return &user
}

func IntPtr(v int) *int { return &v }
