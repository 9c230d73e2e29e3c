package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered marketplace user
type User struct {
	BaseModel
	FullName    string `gorm:"size:100;not null" json:"fullName"`
	UserName    string `gorm:"uniqueIndex;size:100;not null" json:"userName"`
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	StudentID   string `gorm:"uniqueIndex;size:50;not null" json:"studentId"`
	PhoneNumber string `gorm:"uniqueIndex;size:20;not null" json:"phoneNumber"`
	Password    string `gorm:"size:255;not null" json:"-"` // Never send password in JSON

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	Products      []Product      `gorm:"foreignKey:OwnerID" json:"-"`
	SentMessages  []Message      `gorm:"foreignKey:SenderID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	UserName    string    `json:"userName"`
	Email       string    `json:"email"`
	StudentID   string    `json:"studentId"`
	PhoneNumber string    `json:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:          u.ID,
		FullName:    u.FullName,
		UserName:    u.UserName,
		Email:       u.Email,
		StudentID:   u.StudentID,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
