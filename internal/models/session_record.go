package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionRecord marks one completed voice session for a companion/user pair.
// Append-only: nothing in this service updates or deletes rows.
type SessionRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	CompanionID string    `json:"companionId" gorm:"size:36;index"`
	UserID      uint      `json:"userId" gorm:"index"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}

// AddToSessionHistory appends a completion record.
func AddToSessionHistory(db *gorm.DB, companionID string, userID uint) error {
	return db.Create(&SessionRecord{CompanionID: companionID, UserID: userID}).Error
}

// SessionHistoryItem is a history row joined with its companion.
type SessionHistoryItem struct {
	SessionRecord
	Companion *Companion `json:"companion,omitempty" gorm:"-"`
}

// ListUserSessions returns a user's most recent completed sessions, newest
// first, with companions resolved where they still exist.
func ListUserSessions(db *gorm.DB, userID uint, limit int) ([]SessionHistoryItem, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var records []SessionRecord
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	items := make([]SessionHistoryItem, 0, len(records))
	for _, record := range records {
		item := SessionHistoryItem{SessionRecord: record}
		if companion, err := GetCompanion(db, record.CompanionID); err == nil {
			item.Companion = companion
		}
		items = append(items, item)
	}
	return items, nil
}

// CountUserSessions counts a user's completed sessions.
func CountUserSessions(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&SessionRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
