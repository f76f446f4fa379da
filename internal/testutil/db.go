// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"circle/internal/database"
	"circle/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a fresh in-memory schema. A single connection keeps the
// memory database alive and serializes transactions, so code under test must
// use the transaction handle for every statement inside a transaction.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUsers inserts one user per name, in order, so ids are 1..n on a fresh DB.
func CreateUsers(t testing.TB, db *gorm.DB, names ...string) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(names))
	for _, name := range names {
		u := models.User{Username: name}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return users
}

// Names returns prefix1..prefixN.
func Names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// Count returns the number of model rows matching query. An empty query
// counts the whole table.
func Count(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
