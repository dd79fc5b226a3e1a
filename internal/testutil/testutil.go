// Package testutil opens throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq int64

// DB returns a migrated in-memory sqlite database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// sqlite allows one writer; a single connection keeps tests deterministic
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(tb testing.TB, db *gorm.DB, email string) *model.User {
	tb.Helper()
	u := model.NewUser(strings.Split(email, "@")[0], email, "hashed")
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func ReloadUser(tb testing.TB, db *gorm.DB, id uint) *model.User {
	tb.Helper()
	var u model.User
	if err := db.First(&u, id).Error; err != nil {
		tb.Fatalf("reload user %d: %v", id, err)
	}
	return &u
}
