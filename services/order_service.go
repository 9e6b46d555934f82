package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const (
	ordersPerPage = 8
	maxNoteLength = 500
)

// OrderService owns the table/order/stock lifecycle. Every mutating method
// commits its stock, line item, order and table changes together or not at all.
type OrderService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewOrderService(db *gorm.DB, log *ActionLogger) *OrderService {
	return &OrderService{db: db, log: log}
}

type AddItemResult struct {
	Order *models.Order `json:"order"`
	// Product carries the stock left after the add.
	Product models.Product `json:"product"`
	// OrderCreated is set when this add opened the table's order.
	OrderCreated bool `json:"order_created"`
	// LowStock is set when this add took the last unit.
	LowStock bool `json:"low_stock"`
}

// AddItem puts one unit of a product on the table's open order, opening the
// order (and occupying the table) when there is none.
func (s *OrderService) AddItem(ctx context.Context, actor Actor, tableID, productID uint) (*AddItemResult, error) {
	res := &AddItemResult{}

	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if !product.Active {
			return ErrProductInactive
		}
		if product.Stock < 1 {
			return ErrOutOfStock
		}

		// Guarded decrement: a concurrent add that took the last unit leaves
		// zero rows affected here.
		dec := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= 1", product.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if dec.Error != nil {
			return dec.Error
		}
		if dec.RowsAffected == 0 {
			return ErrOutOfStock
		}
		product.Stock--

		order, err := findOpenOrder(tx, table.ID)
		if err != nil {
			return err
		}
		if order == nil {
			order = &models.Order{
				TableID:  &table.ID,
				WaiterID: actor.staffRef(),
				Status:   models.OrderStatusPreparing,
			}
			if err := tx.Create(order).Error; err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			res.OrderCreated = true
		}
		if table.Status != models.TableStatusOccupied {
			if err := tx.Model(&table).Update("status", models.TableStatusOccupied).Error; err != nil {
				return err
			}
		}

		var item models.OrderItem
		err = tx.Where("order_id = ? AND product_id = ?", order.ID, product.ID).First(&item).Error
		switch {
		case err == nil:
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + 1")).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  1,
				UnitPrice: product.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		default:
			return err
		}

		loaded, err := loadOrder(tx, order.ID)
		if err != nil {
			return err
		}
		res.Order = loaded
		res.Product = product
		res.LowStock = product.Stock == 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.OrderCreated {
		s.log.Record(ctx, actor, models.ActionOrderCreate,
			fmt.Sprintf("Order #%d opened on table %s", res.Order.ID, tableName(res.Order)))
	}
	s.log.Record(ctx, actor, models.ActionOrderItemAdd,
		fmt.Sprintf("%s added to order #%d", res.Product.Name, res.Order.ID))
	if res.LowStock {
		utils.InfoLogger.WithFields(logrus.Fields{
			"product_id": res.Product.ID,
			"product":    res.Product.Name,
		}).Warn("product sold out")
	}
	return res, nil
}

// RemoveItem takes one unit of a product off the table's open order and puts
// it back in stock. It reports false when there was nothing to remove.
func (s *OrderService) RemoveItem(ctx context.Context, actor Actor, tableID, productID uint) (bool, error) {
	var (
		removed bool
		orderID uint
		name    string
	)

	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}

		order, err := findOpenOrder(tx, table.ID)
		if err != nil || order == nil {
			return err
		}

		var item models.OrderItem
		err = tx.Preload("Product").
			Where("order_id = ? AND product_id = ?", order.ID, productID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if item.Quantity > 1 {
			err = tx.Model(&item).Update("quantity", gorm.Expr("quantity - 1")).Error
		} else {
			err = tx.Delete(&item).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock", gorm.Expr("stock + 1")).Error; err != nil {
			return err
		}

		removed, orderID, name = true, order.ID, item.Product.Name
		return nil
	})
	if err != nil || !removed {
		return false, err
	}

	s.log.Record(ctx, actor, models.ActionOrderItemRemove,
		fmt.Sprintf("%s removed from order #%d", name, orderID))
	return true, nil
}

// ChangeStatus moves an open order between preparing, served and completed.
// Completing this way closes the order and frees its table without a payment;
// cancellation has to go through CancelOrder so stock is restored.
func (s *OrderService) ChangeStatus(ctx context.Context, actor Actor, orderID uint, status string) (*models.Order, error) {
	switch status {
	case models.OrderStatusPreparing, models.OrderStatusServed, models.OrderStatusCompleted:
	case models.OrderStatusCancelled:
		return nil, ErrInvalidTransition
	default:
		return nil, invalid("status", "unknown order status %q", status)
	}

	var (
		order    *models.Order
		previous string
	)
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return ErrOrderClosed
		}
		previous = order.Status
		if previous == status {
			return nil
		}

		updates := map[string]interface{}{"status": status}
		if status == models.OrderStatusCompleted {
			now := time.Now()
			updates["closed_at"] = now
			order.ClosedAt = &now
			if err := releaseTable(tx, order); err != nil {
				return err
			}
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.log.Record(ctx, actor, models.ActionOrderStatusUpdate,
			fmt.Sprintf("Order #%d: %s -> %s", order.ID, previous, status))
	}
	return order, nil
}

// CancelOrder returns every line's quantity to stock, cancels the order and
// frees its table. A closed order is rejected so stock is never restored twice.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return ErrOrderClosed
		}

		for _, item := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("restore stock for product %d: %w", item.ProductID, err)
			}
		}

		now := time.Now()
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":    models.OrderStatusCancelled,
			"closed_at": now,
		}).Error; err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		order.ClosedAt = &now
		return releaseTable(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionOrderCancel,
		fmt.Sprintf("Order #%d cancelled on table %s, %d units restored", order.ID, tableName(order), order.ItemCount()))
	return order, nil
}

// SaveNote replaces the free-text note of an open order.
func (s *OrderService) SaveNote(ctx context.Context, actor Actor, orderID uint, note string) (*models.Order, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, invalid("note", "must be at most %d characters", maxNoteLength)
	}

	var order *models.Order
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return ErrOrderClosed
		}
		order.Note = note
		return tx.Model(order).Update("note", note).Error
	})
	return order, err
}

// OpenOrderForTable returns the table and its open order; the order is nil
// when the table is free.
func (s *OrderService) OpenOrderForTable(ctx context.Context, tableID uint) (*models.Table, *models.Order, error) {
	db := s.db.WithContext(ctx)

	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		return nil, nil, notFound(err, ErrTableNotFound)
	}
	order, err := findOpenOrder(db, table.ID)
	if err != nil || order == nil {
		return &table, nil, err
	}
	order, err = loadOrder(db, order.ID)
	return &table, order, err
}

// ActiveOrders lists every preparing or served order, oldest first.
func (s *OrderService) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Table").
		Preload("Waiter").
		Preload("Items", orderItemsByID).
		Preload("Items.Product").
		Where("status IN ?", models.OpenOrderStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

type OrderFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Search string
	Sort   string
	Page   int
}

const orderAmountExpr = "(SELECT COALESCE(SUM(oi.quantity * oi.unit_price), 0) FROM order_items oi WHERE oi.order_id = orders.id)"

// ListOrders is the order history view.
func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, utils.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).
		Joins("LEFT JOIN dining_tables ON dining_tables.id = orders.table_id").
		Joins("LEFT JOIN staff ON staff.id = orders.waiter_id")

	if f.From != nil {
		q = q.Where("orders.created_at >= ?", utils.StartOfDay(*f.From))
	}
	if f.To != nil {
		q = q.Where("orders.created_at <= ?", utils.EndOfDay(*f.To))
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(dining_tables.name) LIKE ? OR LOWER(staff.full_name) LIKE ? OR LOWER(orders.note) LIKE ?)", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.NewPage(f.Page, ordersPerPage, total)

	switch f.Sort {
	case "amount_desc":
		q = q.Order(orderAmountExpr + " DESC")
	case "amount_asc":
		q = q.Order(orderAmountExpr + " ASC")
	case "oldest":
		q = q.Order("orders.created_at ASC")
	default:
		q = q.Order("orders.created_at DESC")
	}

	var orders []models.Order
	err := q.Select("orders.*").
		Preload("Table").
		Preload("Waiter").
		Preload("Items", orderItemsByID).
		Preload("Items.Product").
		Preload("Payment.PaymentMethod").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&orders).Error
	return orders, page, err
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id ASC")
}

func findOpenOrder(tx *gorm.DB, tableID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Where("table_id = ? AND status IN ?", tableID, models.OpenOrderStatuses).
		Order("id DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Table").
		Preload("Waiter").
		Preload("Items", orderItemsByID).
		Preload("Items.Product").
		First(&order, orderID).Error
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// releaseTable frees the order's table, keeping the preloaded Table in step.
func releaseTable(tx *gorm.DB, order *models.Order) error {
	if order.TableID == nil {
		return nil
	}
	if err := tx.Model(&models.Table{}).
		Where("id = ?", *order.TableID).
		Update("status", models.TableStatusEmpty).Error; err != nil {
		return err
	}
	if order.Table != nil {
		order.Table.Status = models.TableStatusEmpty
	}
	return nil
}

func tableName(order *models.Order) string {
	if order.Table != nil {
		return order.Table.Name
	}
	if order.TableID != nil {
		return fmt.Sprintf("#%d", *order.TableID)
	}
	return "-"
}
