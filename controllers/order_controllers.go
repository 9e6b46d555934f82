package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// OrderController serves the waiter's order screens and the manager's order
// history.
type OrderController struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
	Catalog  *services.CatalogService
	Sessions session.Store
	Hub      *live.Hub
	// LowStockThreshold triggers a stock_alert once a sale leaves fewer units.
	LowStockThreshold int
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService, catalog *services.CatalogService,
	sessions session.Store, hub *live.Hub, lowStockThreshold int) *OrderController {
	return &OrderController{
		Orders:            orders,
		Payments:          payments,
		Catalog:           catalog,
		Sessions:          sessions,
		Hub:               hub,
		LowStockThreshold: lowStockThreshold,
	}
}

type orderPage struct {
	Table *models.Table     `json:"table"`
	Order *models.Order     `json:"order"`
	Total string            `json:"total"`
	Menu  []models.Category `json:"menu"`
}

type tableEvent struct {
	TableID uint   `json:"table_id"`
	Status  string `json:"status"`
}

type orderEvent struct {
	OrderID uint   `json:"order_id"`
	TableID *uint  `json:"table_id"`
	Status  string `json:"status"`
	Total   string `json:"total"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{OrderID: o.ID, TableID: o.TableID, Status: o.Status, Total: o.Total().StringFixed(2)}
}

func (oc *OrderController) broadcastClosed(o *models.Order) {
	oc.Hub.BroadcastOrderUpdate(newOrderEvent(o))
	if o.TableID != nil {
		oc.Hub.BroadcastTableUpdate(tableEvent{TableID: *o.TableID, Status: models.TableStatusEmpty})
	}
}

// OrderPage -> GET /waiter/tables/:table_id/order
// Opening the page answers the table's waiter call.
func (oc *OrderController) OrderPage(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	table, order, err := oc.Orders.OpenOrderForTable(ctx, tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	menu, err := oc.Catalog.Menu(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := oc.Sessions.ClearCall(ctx, tableID); err != nil {
		utils.ErrorLogger.Warnf("clear waiter call for table %d: %v", tableID, err)
	}

	page := orderPage{Table: table, Order: order, Total: "0.00", Menu: menu}
	if order != nil {
		page.Total = order.Total().StringFixed(2)
	}
	utils.RespondJSON(c, http.StatusOK, "Order for table "+table.Name, page)
}

// AddItem -> POST /waiter/tables/:table_id/items
func (oc *OrderController) AddItem(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		ProductID uint `json:"product_id" form:"product_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := oc.Orders.AddItem(c.Request.Context(), actor, tableID, req.ProductID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if res.OrderCreated {
		oc.Hub.BroadcastTableUpdate(tableEvent{TableID: tableID, Status: models.TableStatusOccupied})
	}
	oc.Hub.BroadcastOrderUpdate(newOrderEvent(res.Order))
	if res.Product.Stock < oc.LowStockThreshold {
		oc.Hub.BroadcastStockAlert(gin.H{
			"product_id": res.Product.ID,
			"name":       res.Product.Name,
			"stock":      res.Product.Stock,
		}, models.RoleManager)
	}

	msg := fmt.Sprintf("%s added", res.Product.Name)
	if res.LowStock {
		msg += "; that was the last one in stock"
	}
	utils.RespondJSON(c, http.StatusOK, msg, res)
}

// RemoveItem -> DELETE /waiter/tables/:table_id/items/:product_id
func (oc *OrderController) RemoveItem(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}

	removed, err := oc.Orders.RemoveItem(c.Request.Context(), actor, tableID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !removed {
		utils.RespondJSON(c, http.StatusOK, "Nothing to remove", gin.H{"removed": false})
		return
	}

	_, order, err := oc.Orders.OpenOrderForTable(c.Request.Context(), tableID)
	if err == nil && order != nil {
		oc.Hub.BroadcastOrderUpdate(newOrderEvent(order))
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", gin.H{"removed": true, "order": order})
}

// ActiveOrders -> GET /waiter/orders/active
func (oc *OrderController) ActiveOrders(c *gin.Context) {
	orders, err := oc.Orders.ActiveOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
}

// SaveNote -> PUT /waiter/orders/:order_id/note
func (oc *OrderController) SaveNote(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note" form:"note"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := oc.Orders.SaveNote(c.Request.Context(), actor, orderID, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Note saved", order)
}

// ChangeStatus -> PUT /waiter/orders/:order_id/status
func (oc *OrderController) ChangeStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" form:"status" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := oc.Orders.ChangeStatus(c.Request.Context(), actor, orderID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if order.IsOpen() {
		oc.Hub.BroadcastOrderUpdate(newOrderEvent(order))
	} else {
		oc.broadcastClosed(order)
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// TakePayment -> POST /waiter/orders/:order_id/payment
func (oc *OrderController) TakePayment(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		PaymentMethodID uint `json:"payment_method_id" form:"payment_method_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	payment, order, err := oc.Payments.TakePayment(c.Request.Context(), actor, orderID, req.PaymentMethodID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	oc.broadcastClosed(order)
	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Payment of %s taken, table %s is free", utils.FormatCurrency(payment.Amount), tableLabel(order)),
		gin.H{"payment": payment, "order": order})
}

// CancelOrder -> POST /waiter/orders/:order_id/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.CancelOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	oc.broadcastClosed(order)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled and stock restored", order)
}

// PaymentMethods -> GET /waiter/payment-methods
func (oc *OrderController) PaymentMethods(c *gin.Context) {
	methods, err := oc.Payments.Methods(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment methods", methods)
}

// History -> GET /admin/orders
func (oc *OrderController) History(c *gin.Context) {
	orders, page, err := oc.Orders.ListOrders(c.Request.Context(), services.OrderFilter{
		From:   utils.QueryDate(c, "from"),
		To:     utils.QueryDate(c, "to"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Page:   utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders", listResponse{Items: orders, Page: page})
}

func tableLabel(o *models.Order) string {
	if o.Table != nil {
		return o.Table.Name
	}
	return "-"
}
