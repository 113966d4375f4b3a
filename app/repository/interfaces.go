package repository

import (
	"github.com/smartscan-app/smartscan/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByLineUserID(lineUserID string) (*models.User, error)
	Update(user *models.User) error
	UpdateColumns(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	List() ([]models.User, error)
	Count() (int64, error)
}

// RecordRepository defines the interface for receipt record operations.
// All lookups are scoped to the owning user.
type RecordRepository interface {
	Create(record *models.ReceiptRecord) error
	GetByID(userID uint, id string) (*models.ReceiptRecord, error)
	ListByUser(userID uint) ([]models.ReceiptRecord, error)
	ListByUserAndIDs(userID uint, ids []string) ([]models.ReceiptRecord, error)
	Update(userID uint, id string, fields map[string]interface{}) error
	Delete(userID uint, id string) error
	DeleteByUser(userID uint) error
	CountByUser(userID uint) (int64, error)
}
