package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToSessionHistory(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Companion{}, &SessionRecord{})

	require.NoError(t, AddToSessionHistory(db, "comp-1", 1))
	require.NoError(t, AddToSessionHistory(db, "comp-1", 1))

	count, err := CountUserSessions(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListUserSessions_NewestFirstWithCompanions(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Companion{}, &SessionRecord{})

	companion := Companion{ID: "comp-1", Author: 1, Name: "Neura", Subject: "science"}
	require.NoError(t, CreateCompanion(db, &companion))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []SessionRecord{
		{CompanionID: "comp-1", UserID: 1, CreatedAt: base},
		{CompanionID: "comp-gone", UserID: 1, CreatedAt: base.Add(time.Minute)},
		{CompanionID: "comp-1", UserID: 2, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}

	items, err := ListUserSessions(db, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first; deleted companions leave the record but drop the join.
	assert.Equal(t, "comp-gone", items[0].CompanionID)
	assert.Nil(t, items[0].Companion)
	assert.Equal(t, "comp-1", items[1].CompanionID)
	require.NotNil(t, items[1].Companion)
	assert.Equal(t, "Neura", items[1].Companion.Name)
}

func TestListUserSessions_LimitApplies(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Companion{}, &SessionRecord{})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record := SessionRecord{CompanionID: "comp-1", UserID: 1, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, db.Create(&record).Error)
	}

	items, err := ListUserSessions(db, 1, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = ListUserSessions(db, 1, 0)
	require.NoError(t, err)
	assert.Len(t, items, 5, "invalid limit falls back to default 10")
}
