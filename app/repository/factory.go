package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory creates repository instances sharing one database handle
type Factory struct {
	db *gorm.DB

	userRepo   UserRepository
	recordRepo RecordRepository
	mu         sync.Mutex
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetUserRepository returns the shared user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userRepo == nil {
		f.userRepo = NewUserRepository(f.db)
	}
	return f.userRepo
}

// GetRecordRepository returns the shared record repository instance
func (f *Factory) GetRecordRepository() RecordRepository {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordRepo == nil {
		f.recordRepo = NewRecordRepository(f.db)
	}
	return f.recordRepo
}
