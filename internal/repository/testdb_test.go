package repository

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osm-campaigns/dashboard/internal/models"
)

const testDriver = "sqlite3_dashboard"

var registerDriver sync.Once

// points mirrors the get_points routine of the production schema closely enough for tests.
func points(_ string, contribution string) int64 {
	switch contribution {
	case "add":
		return 3
	case "edit":
		return 2
	default:
		return 1
	}
}

// setupTestDB creates an in-memory SQLite database with the application tables.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	registerDriver.Do(func() {
		sql.Register(testDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("get_points", points, true)
			},
		})
	})

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: testDriver, DSN: ":memory:"}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A single connection keeps every statement on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	wrapped := &DB{db}
	if err := wrapped.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if err := wrapped.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return wrapped
}

// useBadgeFixture replaces the get_badges routine with a plain table for the duration of a test.
func useBadgeFixture(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Exec(`CREATE TABLE test_badges (project TEXT, userid INTEGER, id TEXT, acquired INTEGER)`).Error; err != nil {
		t.Fatalf("Failed to create badge fixture: %v", err)
	}

	previous := getBadgesSQL
	getBadgesSQL = "SELECT project, id, acquired FROM test_badges WHERE project = ? AND userid = ? ORDER BY id"
	t.Cleanup(func() { getBadgesSQL = previous })
}

func insertBadge(t *testing.T, db *DB, project string, userID int64, id string, acquired int) {
	t.Helper()
	err := db.Exec("INSERT INTO test_badges (project, userid, id, acquired) VALUES (?, ?, ?, ?)",
		project, userID, id, acquired).Error
	if err != nil {
		t.Fatalf("Failed to insert badge: %v", err)
	}
}

func countContributions(t *testing.T, db *DB, project string) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.Contribution{}).Where("project = ?", project).Count(&count).Error
	if err != nil {
		t.Fatalf("Failed to count contributions: %v", err)
	}
	return count
}
