package models

import (
	"context"
	"errors"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthAccount is one directory-service account. Uid is the
// provider-assigned id the rest of the system keys on.
type AuthAccount struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Uid       string    `gorm:"size:40;not null;unique" json:"uid"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var ErrEmailInUse = errors.New("email already in use")

// FetchSignInMethods reports the sign-in methods registered for an email.
// The directory only supports password sign-in, so the result is either
// empty or ["password"].
func FetchSignInMethods(ctx context.Context, email string) ([]string, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&AuthAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return []string{"password"}, nil
	}
	return nil, nil
}

// CreateAuthAccount registers a new account and returns its uid.
// Existing emails are never overwritten.
func CreateAuthAccount(ctx context.Context, email string, password string) (string, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&AuthAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrEmailInUse
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return "", err
	}

	account := AuthAccount{
		Uid:      uuid.NewString(),
		Email:    email,
		Password: string(hashed),
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return "", err
	}
	return account.Uid, nil
}

// GetAuthAccountByUid looks one account up by its provider-assigned id.
func GetAuthAccountByUid(ctx context.Context, uid string) (*AuthAccount, error) {
	db := config.GetDB()
	var account AuthAccount
	if err := db.WithContext(ctx).Model(&AuthAccount{}).Where("uid = ?", uid).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}
