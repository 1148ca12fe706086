package models

import (
	"context"
	"errors"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/utils"
	"gorm.io/gorm"
)

// Department provides the short codes used in profile paths (CSE, ECE...).
type Department struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:10;not null;unique" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateDepartment(ctx context.Context, input *Department) (*Department, error) {
	db := config.GetDB()
	if err := utils.ValidateUnique[Department](ctx, "code", input.Code, 0); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(input).Error; err != nil {
		return nil, err
	}
	return input, nil
}

func GetDepartmentByCode(ctx context.Context, code string) (*Department, error) {
	db := config.GetDB()
	var result Department
	if err := db.WithContext(ctx).Model(&Department{}).Where("code = ?", code).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func GetAllDepartments(ctx context.Context) ([]*Department, error) {
	db := config.GetDB()
	var results []*Department
	if err := db.WithContext(ctx).Model(&Department{}).Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
