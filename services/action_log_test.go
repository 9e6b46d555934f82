package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func TestActionLogRecordAndList(t *testing.T) {
	db := setupTestDB(t)
	log := NewActionLogger(db)
	boss := createStaff(t, db, "boss", models.RoleManager)
	ali := createStaff(t, db, "ali", models.RoleWaiter)

	log.Record(ctx, actorFor(boss), models.ActionTableAdd, "Table T1 added")
	log.Record(ctx, actorFor(ali), models.ActionOrderCreate, "Order #1 opened on table T1")
	log.Record(ctx, actorFor(ali), models.ActionOrderCancel, strings.Repeat("x", 600))
	// Customers have no staff id.
	log.Record(ctx, Actor{IP: "10.0.0.9"}, models.ActionLogin, "anonymous")

	logs, page, err := log.List(ctx, LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, logs, 4)
	assert.Equal(t, "anonymous", logs[0].Description)
	assert.Nil(t, logs[0].StaffID)

	logs, _, err = log.List(ctx, LogFilter{StaffID: &ali.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Len(t, logs[0].Description, 500)
	require.NotNil(t, logs[0].Staff)
	assert.Equal(t, "Ali", logs[0].Staff.FullName)

	logs, _, err = log.List(ctx, LogFilter{Action: models.ActionTableAdd})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	logs, _, err = log.List(ctx, LogFilter{Search: "t1"})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	tomorrow := time.Now().AddDate(0, 0, 1)
	logs, _, err = log.List(ctx, LogFilter{From: &tomorrow})
	require.NoError(t, err)
	assert.Empty(t, logs)
}
