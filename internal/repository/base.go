// Package repository provides data access layer implementations for the application.
package repository

import (
	"circle/internal/database"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ascendingWindow returns rows with id > afterID in ascending order. When
// afterID is zero it returns the newest limit rows, still ascending, which is
// the initial load of a watermark poller.
func ascendingWindow[T any](q *gorm.DB, column string, afterID uint, limit int) ([]T, error) {
	limit = clampLimit(limit)
	var rows []T
	if afterID > 0 {
		err := q.Where(column+" > ?", afterID).Order(column + " ASC").Limit(limit).Find(&rows).Error
		return rows, err
	}
	if err := q.Order(column + " DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
