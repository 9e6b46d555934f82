package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStaffService(db, NewActionLogger(db))
	waiter := createStaff(t, db, "ali", models.RoleWaiter)

	_, err := svc.Authenticate(ctx, "ali", "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "secret123", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	staff, err := svc.Authenticate(ctx, " ali ", "secret123", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, waiter.ID, staff.ID)
	assert.Equal(t, models.ShiftOnDuty, staff.ShiftStatus)
	assert.NotNil(t, staff.LastLoginAt)
	assert.Equal(t, int64(1), countLogs(t, db, models.ActionLogin))

	require.NoError(t, svc.SignOut(ctx, actorFor(*staff), "session expired"))
	reloaded, err := svc.Get(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftOffDuty, reloaded.ShiftStatus)

	var entry models.ActionLog
	require.NoError(t, db.Where("action = ?", models.ActionLogout).First(&entry).Error)
	assert.Contains(t, entry.Description, "session expired")
}

func TestAuthenticateRejectsInactiveAccounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStaffService(db, NewActionLogger(db))
	staff := createStaff(t, db, "veli", models.RoleWaiter)
	require.NoError(t, db.Model(&staff).Update("account_status", models.AccountSuspended).Error)

	_, err := svc.Authenticate(ctx, "veli", "secret123", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestCreateAndUpdateStaff(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStaffService(db, NewActionLogger(db))
	manager := actorFor(createStaff(t, db, "boss", models.RoleManager))

	in := StaffInput{FullName: "Ayse Yilmaz", Username: "ayse", Password: "123", Role: models.RoleWaiter}
	_, err := svc.Create(ctx, manager, in)
	assert.True(t, IsValidation(err))

	in.Password = "secret123"
	in.Role = "chef"
	_, err = svc.Create(ctx, manager, in)
	assert.True(t, IsValidation(err))

	in.Role = models.RoleWaiter
	staff, err := svc.Create(ctx, manager, in)
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, staff.AccountStatus)
	assert.Equal(t, models.ShiftOffDuty, staff.ShiftStatus)

	dup := in
	dup.Username = "AYSE"
	_, err = svc.Create(ctx, manager, dup)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// No password keeps the old one.
	update := in
	update.Password = ""
	update.Phone = "555 0101"
	_, err = svc.Update(ctx, manager, staff.ID, update)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ayse", "secret123", "")
	require.NoError(t, err)

	update.AccountStatus = models.AccountSuspended
	suspended, err := svc.Update(ctx, manager, staff.ID, update)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftOffDuty, suspended.ShiftStatus)
	_, err = svc.Authenticate(ctx, "ayse", "secret123", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestDeleteStaff(t *testing.T) {
	db := setupTestDB(t)
	log := NewActionLogger(db)
	svc := NewStaffService(db, log)
	orders := NewOrderService(db, log)
	boss := createStaff(t, db, "boss", models.RoleManager)
	manager := actorFor(boss)

	_, err := svc.Delete(ctx, manager, boss.ID)
	assert.ErrorIs(t, err, ErrSelfDelete)

	busy := createStaff(t, db, "ali", models.RoleWaiter)
	category := createCategory(t, db, "Mains")
	product := createProduct(t, db, category.ID, "Pide", "9.00", 5)
	table := createTable(t, db, "T1", models.TableStatusEmpty)
	_, err = orders.AddItem(ctx, actorFor(busy), table.ID, product.ID)
	require.NoError(t, err)

	soft, err := svc.Delete(ctx, manager, busy.ID)
	require.NoError(t, err)
	assert.True(t, soft)
	left, err := svc.Get(ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountLeft, left.AccountStatus)

	fresh := createStaff(t, db, "new", models.RoleWaiter)
	soft, err = svc.Delete(ctx, manager, fresh.ID)
	require.NoError(t, err)
	assert.False(t, soft)
	_, err = svc.Get(ctx, fresh.ID)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestListStaff(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStaffService(db, NewActionLogger(db))
	createStaff(t, db, "boss", models.RoleManager)
	createStaff(t, db, "ali", models.RoleWaiter)
	createStaff(t, db, "veli", models.RoleWaiter)

	staff, page, err := svc.List(ctx, StaffFilter{Role: models.RoleWaiter})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, staff, 2)
	assert.Equal(t, "Ali", staff[0].FullName)

	staff, _, err = svc.List(ctx, StaffFilter{Search: "VEL"})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "veli", staff[0].Username)
}
