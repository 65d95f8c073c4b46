package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/velvoice/companiond/pkg/cache"
)

// Plan is an entitlement tier resolved from the external billing service.
type Plan string

const (
	PlanNone Plan = "none" // no entitlement, creation denied
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// companionLimits maps plans to the companion-creation cap.
var companionLimits = map[Plan]int64{
	PlanNone: 0,
	PlanFree: 3,
	PlanPro:  10,
}

// Subscription mirrors the user's plan tier as reported by billing.
type Subscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	UserID uint `json:"userId" gorm:"uniqueIndex"`
	Plan   Plan `json:"plan" gorm:"size:20"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// CompanionLimit returns the creation cap for a plan. Unknown plans resolve
// to zero, same as no entitlement.
func CompanionLimit(plan Plan) int64 {
	return companionLimits[plan]
}

// GetUserPlan resolves a user's plan. A user with no subscription row is on
// the free tier; denying all creation to unknown users would lock out every
// account that has never touched billing.
func GetUserPlan(db *gorm.DB, userID uint) (Plan, error) {
	cacheKey := fmt.Sprintf("plan:%d", userID)
	if v, ok := cache.Global().Get(cacheKey); ok {
		return Plan(v), nil
	}

	var sub Subscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		cache.Global().Set(cacheKey, string(PlanFree))
		return PlanFree, nil
	}
	if err != nil {
		return PlanNone, err
	}
	cache.Global().Set(cacheKey, string(sub.Plan))
	return sub.Plan, nil
}

// CanCreateCompanion checks the creation quota: the user's companion count
// must stay below the plan cap.
func CanCreateCompanion(db *gorm.DB, userID uint) (bool, error) {
	plan, err := GetUserPlan(db, userID)
	if err != nil {
		return false, err
	}
	limit := CompanionLimit(plan)
	if limit == 0 {
		return false, nil
	}
	count, err := CountUserCompanions(db, userID)
	if err != nil {
		return false, err
	}
	return count < limit, nil
}
