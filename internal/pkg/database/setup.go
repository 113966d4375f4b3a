package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/env"
	"github.com/smartscan-app/smartscan/internal/pkg/plans"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.ReceiptRecord{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func GetDB() *gorm.DB {
	return DB
}

// SeedAdminUser creates the initial admin account if none exists yet.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAdminUser() error {
	var count int64
	if err := DB.Model(&models.User{}).Where("role = ?", models.ROLE_ADMIN).Count(&count).Error; err != nil {
		return fmt.Errorf("counting admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	plan, _ := plans.ByID(plans.Unlimited)
	admin, err := models.CreateUser(
		env.GetEnv("ADMIN_EMAIL", "admin@smartscan.app"),
		env.GetEnv("ADMIN_PASSWORD", "password"),
		plan.ID,
		plan.Limit,
	)
	if err != nil {
		return fmt.Errorf("building admin user: %w", err)
	}
	admin.Role = models.ROLE_ADMIN

	if err := DB.Create(admin).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	log.Printf("Seeded admin account %s", admin.Email)
	return nil
}
