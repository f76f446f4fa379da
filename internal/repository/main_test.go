package repository

import (
	"testing"

	"circle/internal/models"
	"circle/internal/testutil"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewDB(t)
}

func createUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	return testutil.CreateUsers(t, db, testutil.Names("user_", n)...)
}
