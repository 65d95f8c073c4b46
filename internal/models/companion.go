package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCompanionNotFound is returned when a companion id does not resolve.
// Callers are expected to turn this into a not-found/redirect response.
var ErrCompanionNotFound = errors.New("companion not found")

// Companion is a user-created tutoring persona. Voice and style feed the
// assistant configuration builder; subject and topic become call variables.
type Companion struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Author   uint   `json:"author" gorm:"index"`
	Name     string `json:"name" gorm:"size:200;index"`
	Subject  string `json:"subject" gorm:"size:100;index"`
	Topic    string `json:"topic" gorm:"size:500"`
	Style    string `json:"style" gorm:"size:20"`
	Voice    string `json:"voice" gorm:"size:20"`
	Duration int    `json:"duration"` // minutes
}

func (Companion) TableName() string {
	return "companions"
}

// CompanionFilter narrows ListCompanions. Zero values mean "no filter".
type CompanionFilter struct {
	Subject string
	Topic   string
}

// CreateCompanion persists a new companion for the author.
func CreateCompanion(db *gorm.DB, companion *Companion) error {
	if companion.ID == "" {
		companion.ID = uuid.NewString()
	}
	return db.Create(companion).Error
}

// GetCompanion fetches a companion by id.
func GetCompanion(db *gorm.DB, id string) (*Companion, error) {
	var companion Companion
	err := db.Where("id = ?", id).First(&companion).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCompanionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &companion, nil
}

// ListCompanions returns a filtered, newest-first page of companions.
// Topic matches against both topic and name, mirroring the search box.
func ListCompanions(db *gorm.DB, filter CompanionFilter, page, limit int) ([]Companion, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := db.Model(&Companion{})
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Topic != "" {
		like := "%" + filter.Topic + "%"
		query = query.Where("topic LIKE ? OR name LIKE ?", like, like)
	}

	var list []Companion
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListUserCompanions returns every companion created by a user.
func ListUserCompanions(db *gorm.DB, userID uint) ([]Companion, error) {
	var list []Companion
	err := db.Where("author = ?", userID).Order("created_at desc").Find(&list).Error
	return list, err
}

// CountUserCompanions counts companions created by a user, for the
// creation-quota check.
func CountUserCompanions(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&Companion{}).Where("author = ?", userID).Count(&count).Error
	return count, err
}
