package database

import "circle/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Message{},
		&models.Notification{},
	}
}
