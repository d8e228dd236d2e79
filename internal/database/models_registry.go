package database

import "chirp/internal/models"

// PersistentModels returns the schema-managed GORM models. Posts and users
// live in MongoDB and are not listed here.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Notification{},
	}
}
