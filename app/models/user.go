package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER      = "user"
	ROLE_MODERATOR = "moderator"
	ROLE_ADMIN     = "admin"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"type:varchar(50);not null" json:"first_name" validate:"required,max=50"`
	LastName     string     `gorm:"type:varchar(50);not null" json:"last_name" validate:"required,max=50"`
	Email        string     `gorm:"uniqueIndex;type:varchar(120);not null" json:"email" validate:"required,email,max=120"`
	PasswordHash string     `gorm:"type:varchar(256)" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'user'" json:"role" validate:"oneof=user moderator admin"`
	LastLogin    *time.Time `gorm:"default:null" json:"last_login"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUser builds a validated user with the default role. An empty password
// leaves the account OAuth-only.
func NewUser(firstName, lastName, email, password string) (*User, error) {
	u := &User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     NormalizeEmail(email),
		Role:      ROLE_USER,
	}

	if password != "" {
		if err := u.SetPassword(password); err != nil {
			return nil, err
		}
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// IsStaff reports whether the user may enter the admin area.
func (u *User) IsStaff() bool {
	return u.Role == ROLE_ADMIN || u.Role == ROLE_MODERATOR
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

// CheckPassword is always false for accounts created through OAuth.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashedPassword
	return nil
}

// TouchLogin stamps the last login time without bumping updated_at.
func (u *User) TouchLogin(db *gorm.DB) error {
	now := time.Now().UTC()
	u.LastLogin = &now
	return db.Model(u).UpdateColumn("last_login", now).Error
}
