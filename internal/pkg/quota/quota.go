// Package quota gates ingestion volume against a per-user plan limit.
//
// The gate is checked once per batch, not once per file: a batch of N files
// admitted at used == limit-1 may push the counter to limit+N-1 before the
// next batch is rejected. Both counter mutations are single atomic UPDATE
// expressions; the counter is never read-modify-written in Go.
package quota

import (
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
)

// Ledger reads and adjusts a user's usage counter.
type Ledger interface {
	// Check reports whether the user may start a new batch. It is false
	// when used >= limit or the user does not exist.
	Check(userID uint) bool
	// Increment adds n to the usage counter.
	Increment(userID uint, n int) error
	// Decrement subtracts n from the usage counter, clamped at zero.
	Decrement(userID uint, n int) error
}

type sqlLedger struct {
	db *gorm.DB
}

// NewLedger creates a Ledger backed by the users table.
func NewLedger(db *gorm.DB) Ledger {
	return &sqlLedger{db: db}
}

func (l *sqlLedger) Check(userID uint) bool {
	var user models.User
	err := l.db.Select("usage_used", "usage_limit").First(&user, userID).Error
	if err != nil {
		return false
	}
	return user.UsageUsed < user.UsageLimit
}

func (l *sqlLedger) Increment(userID uint, n int) error {
	return l.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("usage_used", gorm.Expr("usage_used + ?", n)).Error
}

func (l *sqlLedger) Decrement(userID uint, n int) error {
	// GREATEST keeps redundant deletes from driving the counter negative.
	return l.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("usage_used", gorm.Expr("GREATEST(CAST(usage_used AS SIGNED) - ?, 0)", n)).Error
}
