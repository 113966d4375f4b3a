package repository

import (
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
)

// recordRepository implements the RecordRepository interface
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository instance
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Create persists a new receipt record
func (r *recordRepository) Create(record *models.ReceiptRecord) error {
	return r.db.Create(record).Error
}

// GetByID retrieves one record owned by the given user
func (r *recordRepository) GetByID(userID uint, id string) (*models.ReceiptRecord, error) {
	var record models.ReceiptRecord
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser returns all records of a user. No server-side ordering is
// guaranteed; callers sort for display or export.
func (r *recordRepository) ListByUser(userID uint) ([]models.ReceiptRecord, error) {
	var records []models.ReceiptRecord
	err := r.db.Where("user_id = ?", userID).Find(&records).Error
	return records, err
}

// ListByUserAndIDs returns the subset of the given ids the user owns
func (r *recordRepository) ListByUserAndIDs(userID uint, ids []string) ([]models.ReceiptRecord, error) {
	var records []models.ReceiptRecord
	err := r.db.Where("user_id = ? AND id IN ?", userID, ids).Find(&records).Error
	return records, err
}

// Update applies field-level changes to one record
func (r *recordRepository) Update(userID uint, id string, fields map[string]interface{}) error {
	result := r.db.Model(&models.ReceiptRecord{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes one record owned by the given user
func (r *recordRepository) Delete(userID uint, id string) error {
	result := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.ReceiptRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUser removes all records of a user (admin cascade delete)
func (r *recordRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.ReceiptRecord{}).Error
}

// CountByUser returns the number of records a user owns
func (r *recordRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReceiptRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
