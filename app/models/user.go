package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"

	SUBSCRIPTION_ACTIVE   = "active"
	SUBSCRIPTION_CANCELED = "canceled"
)

// User is a tenant of the service. The subscription is flattened onto the
// row so the usage counter can be adjusted with a single atomic UPDATE.
type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	LineUserID         *string        `gorm:"type:varchar(64);index" json:"line_user_id,omitempty"`
	Plan               string         `gorm:"type:varchar(50);default:'free'" json:"plan"`
	SubscriptionStatus string         `gorm:"type:varchar(50);default:'active'" json:"subscription_status"`
	UsageLimit         int            `gorm:"not null;default:10" json:"usage_limit"`
	UsageUsed          int            `gorm:"not null;default:0" json:"usage_used"`
	CurrentPeriodStart *time.Time     `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time     `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool           `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// Subscription is the JSON view of a user's plan state as returned by the
// status and subscription endpoints.
type Subscription struct {
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	Limit              int        `json:"limit"`
	Used               int        `json:"used"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a new user with a hashed password and the limits of the
// given plan. The usage counter always starts at zero.
func CreateUser(email, password, plan string, limit int) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &User{
		Email:              email,
		Password:           pw,
		Role:               ROLE_USER,
		Plan:               plan,
		SubscriptionStatus: SUBSCRIPTION_ACTIVE,
		UsageLimit:         limit,
		UsageUsed:          0,
		CurrentPeriodStart: &now,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// IsLinked reports whether the user has a connected chat identity.
func (u *User) IsLinked() bool {
	return u.LineUserID != nil && *u.LineUserID != ""
}

// Subscription returns the JSON view of the user's plan state.
func (u *User) Subscription() Subscription {
	return Subscription{
		Plan:               u.Plan,
		Status:             u.SubscriptionStatus,
		Limit:              u.UsageLimit,
		Used:               u.UsageUsed,
		CurrentPeriodStart: u.CurrentPeriodStart,
		CurrentPeriodEnd:   u.CurrentPeriodEnd,
		CancelAtPeriodEnd:  u.CancelAtPeriodEnd,
	}
}
