package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

type orderFixture struct {
	db       *gorm.DB
	orders   *OrderService
	payments *PaymentService
	actor    Actor
	table    models.Table
	kebap    models.Product
	ayran    models.Product
	cash     models.PaymentMethod
}

func newOrderFixture(t *testing.T) *orderFixture {
	db := setupTestDB(t)
	log := NewActionLogger(db)
	waiter := createStaff(t, db, "ali", models.RoleWaiter)
	mains := createCategory(t, db, "Mains")
	drinks := createCategory(t, db, "Drinks")

	cash := models.PaymentMethod{Name: "Cash"}
	require.NoError(t, db.Create(&cash).Error)

	return &orderFixture{
		db:       db,
		orders:   NewOrderService(db, log),
		payments: NewPaymentService(db, log),
		actor:    actorFor(waiter),
		table:    createTable(t, db, "T1", models.TableStatusEmpty),
		kebap:    createProduct(t, db, mains.ID, "Adana Kebap", "12.50", 5),
		ayran:    createProduct(t, db, drinks.ID, "Ayran", "3.00", 10),
		cash:     cash,
	}
}

func TestAddItemOpensOrderAndOccupiesTable(t *testing.T) {
	f := newOrderFixture(t)

	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.True(t, res.OrderCreated)
	assert.False(t, res.LowStock)
	assert.Equal(t, 4, res.Product.Stock)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 1, res.Order.Items[0].Quantity)
	assert.Equal(t, "12.50", res.Order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, models.OrderStatusPreparing, res.Order.Status)
	require.NotNil(t, res.Order.WaiterID)
	assert.Equal(t, f.actor.StaffID, *res.Order.WaiterID)

	assert.Equal(t, models.TableStatusOccupied, reloadTable(t, f.db, f.table.ID).Status)
	assert.Equal(t, 4, reloadProduct(t, f.db, f.kebap.ID).Stock)

	res, err = f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.False(t, res.OrderCreated)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 2, res.Order.Items[0].Quantity)
	assert.Equal(t, "25.00", res.Order.Total().StringFixed(2))
	assert.Equal(t, 3, reloadProduct(t, f.db, f.kebap.ID).Stock)

	assert.Equal(t, int64(1), countLogs(t, f.db, models.ActionOrderCreate))
	assert.Equal(t, int64(2), countLogs(t, f.db, models.ActionOrderItemAdd))
}

func TestAddItemOutOfStockChangesNothing(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.kebap.ID).Update("stock", 0).Error)

	_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.True(t, IsConflict(err))

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)
	assert.Equal(t, models.TableStatusEmpty, reloadTable(t, f.db, f.table.ID).Status)
}

func TestAddItemTakingLastUnitFlagsLowStock(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.kebap.ID).Update("stock", 1).Error)

	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.True(t, res.LowStock)
	assert.Equal(t, 0, reloadProduct(t, f.db, f.kebap.ID).Stock)

	_, err = f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.kebap.ID).Update("active", false).Error)

	_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	assert.ErrorIs(t, err, ErrProductInactive)
	assert.Equal(t, 5, reloadProduct(t, f.db, f.kebap.ID).Stock)
}

func TestAddItemUnknownTableAndProduct(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.AddItem(ctx, f.actor, 999, f.kebap.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.True(t, IsNotFound(err))

	_, err = f.orders.AddItem(ctx, f.actor, f.table.ID, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddItemOnReservedTableOccupiesIt(t *testing.T) {
	f := newOrderFixture(t)
	reserved := createTable(t, f.db, "T2", models.TableStatusReserved)

	_, err := f.orders.AddItem(ctx, f.actor, reserved.ID, f.ayran.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, reloadTable(t, f.db, reserved.ID).Status)
}

func TestUnitPriceIsFrozenOnFirstAdd(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.kebap.ID).
		Update("price", decimal.RequireFromString("15.00")).Error)

	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", res.Order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "25.00", res.Order.Total().StringFixed(2))
}

func TestRemoveItemRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 2; i++ {
		_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
		require.NoError(t, err)
	}

	removed, err := f.orders.RemoveItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 4, reloadProduct(t, f.db, f.kebap.ID).Stock)

	_, order, err := f.orders.OpenOrderForTable(ctx, f.table.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)

	removed, err = f.orders.RemoveItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 5, reloadProduct(t, f.db, f.kebap.ID).Stock)

	_, order, err = f.orders.OpenOrderForTable(ctx, f.table.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Empty(t, order.Items)
	// The emptied order still holds the table.
	assert.Equal(t, models.TableStatusOccupied, reloadTable(t, f.db, f.table.ID).Status)

	removed, err = f.orders.RemoveItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 5, reloadProduct(t, f.db, f.kebap.ID).Stock)
}

func TestRemoveItemWithoutOrderIsNoop(t *testing.T) {
	f := newOrderFixture(t)

	removed, err := f.orders.RemoveItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int64(0), countLogs(t, f.db, models.ActionOrderItemRemove))
}

func TestCancelOrderRestoresEveryLine(t *testing.T) {
	f := newOrderFixture(t)
	for _, id := range []uint{f.kebap.ID, f.kebap.ID, f.ayran.ID} {
		_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, id)
		require.NoError(t, err)
	}
	_, open, err := f.orders.OpenOrderForTable(ctx, f.table.ID)
	require.NoError(t, err)

	order, err := f.orders.CancelOrder(ctx, f.actor, open.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.NotNil(t, order.ClosedAt)
	assert.Equal(t, 5, reloadProduct(t, f.db, f.kebap.ID).Stock)
	assert.Equal(t, 10, reloadProduct(t, f.db, f.ayran.ID).Stock)
	assert.Equal(t, models.TableStatusEmpty, reloadTable(t, f.db, f.table.ID).Status)

	_, err = f.orders.CancelOrder(ctx, f.actor, open.ID)
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.Equal(t, 5, reloadProduct(t, f.db, f.kebap.ID).Stock)
}

func TestChangeStatus(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	orderID := res.Order.ID

	order, err := f.orders.ChangeStatus(ctx, f.actor, orderID, models.OrderStatusServed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusServed, order.Status)
	assert.Equal(t, models.TableStatusOccupied, reloadTable(t, f.db, f.table.ID).Status)

	_, err = f.orders.ChangeStatus(ctx, f.actor, orderID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.orders.ChangeStatus(ctx, f.actor, orderID, "burnt")
	assert.True(t, IsValidation(err))

	order, err = f.orders.ChangeStatus(ctx, f.actor, orderID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, models.TableStatusEmpty, reloadTable(t, f.db, f.table.ID).Status)
	// Completing does not touch stock.
	assert.Equal(t, 4, reloadProduct(t, f.db, f.kebap.ID).Stock)

	_, err = f.orders.ChangeStatus(ctx, f.actor, orderID, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrOrderClosed)

	_, err = f.orders.ChangeStatus(ctx, f.actor, 999, models.OrderStatusServed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSaveNote(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)

	order, err := f.orders.SaveNote(ctx, f.actor, res.Order.ID, "  no onions  ")
	require.NoError(t, err)
	assert.Equal(t, "no onions", order.Note)

	long := make([]byte, maxNoteLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.orders.SaveNote(ctx, f.actor, res.Order.ID, string(long))
	assert.True(t, IsValidation(err))
}

func TestTakePaymentClosesOrderAndFreesTable(t *testing.T) {
	f := newOrderFixture(t)
	for _, id := range []uint{f.kebap.ID, f.kebap.ID, f.ayran.ID} {
		_, err := f.orders.AddItem(ctx, f.actor, f.table.ID, id)
		require.NoError(t, err)
	}
	_, open, err := f.orders.OpenOrderForTable(ctx, f.table.ID)
	require.NoError(t, err)

	payment, order, err := f.payments.TakePayment(ctx, f.actor, open.ID, f.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "28.00", payment.Amount.StringFixed(2))
	assert.Equal(t, "Cash", payment.PaymentMethod.Name)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, models.TableStatusEmpty, reloadTable(t, f.db, f.table.ID).Status)
	// Paid goods stay sold.
	assert.Equal(t, 3, reloadProduct(t, f.db, f.kebap.ID).Stock)

	_, _, err = f.payments.TakePayment(ctx, f.actor, open.ID, f.cash.ID)
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.Equal(t, int64(1), countLogs(t, f.db, models.ActionPaymentTake))

	// A new order opens on the freed table.
	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.ayran.ID)
	require.NoError(t, err)
	assert.True(t, res.OrderCreated)
	assert.NotEqual(t, open.ID, res.Order.ID)
}

func TestTakePaymentUnknownMethodRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)

	_, _, err = f.payments.TakePayment(ctx, f.actor, res.Order.ID, 999)
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)

	var payments int64
	f.db.Model(&models.Payment{}).Count(&payments)
	assert.Zero(t, payments)
	assert.Equal(t, models.TableStatusOccupied, reloadTable(t, f.db, f.table.ID).Status)
}

func TestActiveOrdersAndHistory(t *testing.T) {
	f := newOrderFixture(t)
	second := createTable(t, f.db, "T2", models.TableStatusEmpty)

	first, err := f.orders.AddItem(ctx, f.actor, f.table.ID, f.kebap.ID)
	require.NoError(t, err)
	_, err = f.orders.AddItem(ctx, f.actor, second.ID, f.ayran.ID)
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, f.actor, first.Order.ID)
	require.NoError(t, err)

	active, err := f.orders.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "T2", active[0].Table.Name)

	history, page, err := f.orders.ListOrders(ctx, OrderFilter{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, history, 1)
	assert.Equal(t, first.Order.ID, history[0].ID)

	history, _, err = f.orders.ListOrders(ctx, OrderFilter{Search: "t2"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "T2", history[0].Table.Name)
}
