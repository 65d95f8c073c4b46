package models

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserContextKey is the gin context key the authenticated user lives under.
// Authentication itself happens upstream; handlers only resolve identity.
const UserContextKey = "user"

// User is the minimal account record this service keeps. Credentials and
// profile data are owned by the external auth service.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"-" gorm:"autoUpdateTime"`

	ExternalID  string `json:"externalId" gorm:"size:128;uniqueIndex"`
	Email       string `json:"email,omitempty" gorm:"size:128;index"`
	DisplayName string `json:"displayName,omitempty" gorm:"size:128"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// CurrentUser returns the authenticated user attached to the request, or nil.
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(UserContextKey); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// GetUserByExternalID resolves the identity forwarded by the auth proxy,
// creating the local account row on first sight.
func GetUserByExternalID(db *gorm.DB, externalID string) (*User, error) {
	var user User
	err := db.Where("external_id = ?", externalID).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = User{ExternalID: externalID}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
