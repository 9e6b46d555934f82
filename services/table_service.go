package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const maxTableNameLength = 50

// TableService enforces which manual table changes are allowed. Occupancy is
// owned by the order lifecycle and is never set by hand.
type TableService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewTableService(db *gorm.DB, log *ActionLogger) *TableService {
	return &TableService{db: db, log: log}
}

// TableView is a table on the floor plan with a summary of its open order.
type TableView struct {
	models.Table
	OrderID   *uint           `json:"order_id,omitempty"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

func (s *TableService) List(ctx context.Context) ([]TableView, error) {
	db := s.db.WithContext(ctx)

	var tables []models.Table
	if err := db.Order("name ASC").Find(&tables).Error; err != nil {
		return nil, err
	}

	var open []models.Order
	if err := db.Preload("Items").
		Where("status IN ?", models.OpenOrderStatuses).
		Find(&open).Error; err != nil {
		return nil, err
	}
	byTable := make(map[uint]models.Order, len(open))
	for _, o := range open {
		if o.TableID != nil {
			byTable[*o.TableID] = o
		}
	}

	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		v := TableView{Table: t, Total: decimal.Zero}
		if o, ok := byTable[t.ID]; ok {
			id := o.ID
			v.OrderID = &id
			v.ItemCount = o.ItemCount()
			v.Total = o.Total()
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, notFound(err, ErrTableNotFound)
	}
	return &table, nil
}

func (s *TableService) Create(ctx context.Context, actor Actor, name string) (*models.Table, error) {
	name, err := validateTableName(name)
	if err != nil {
		return nil, err
	}

	table := models.Table{Name: name, Status: models.TableStatusEmpty}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	s.log.Record(ctx, actor, models.ActionTableAdd, fmt.Sprintf("Table %s added", table.Name))
	return &table, nil
}

// Update renames a table and optionally moves it between empty and reserved.
// An empty status leaves the current one untouched.
func (s *TableService) Update(ctx context.Context, actor Actor, id uint, name, status string) (*models.Table, error) {
	name, err := validateTableName(name)
	if err != nil {
		return nil, err
	}
	switch status {
	case "", models.TableStatusEmpty, models.TableStatusReserved:
	case models.TableStatusOccupied:
		return nil, invalid("status", "a table becomes occupied only by opening an order")
	default:
		return nil, invalid("status", "unknown table status %q", status)
	}

	var table models.Table
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}
		updates := map[string]interface{}{"name": name}
		if status != "" && status != table.Status {
			if table.Status == models.TableStatusOccupied {
				return ErrTableOccupied
			}
			updates["status"] = status
		}
		if err := tx.Model(&table).Updates(updates).Error; err != nil {
			return err
		}
		table.Name = name
		if status != "" {
			table.Status = status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionTableUpdate, fmt.Sprintf("Table #%d updated: %s (%s)", table.ID, table.Name, table.Status))
	return &table, nil
}

// Delete removes a table that is empty and has no open order.
func (s *TableService) Delete(ctx context.Context, actor Actor, id uint) (*models.Table, error) {
	var table models.Table
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}
		switch table.Status {
		case models.TableStatusOccupied:
			return ErrTableOccupied
		case models.TableStatusReserved:
			return ErrTableReserved
		}

		open, err := findOpenOrder(tx, table.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrTableHasOpenOrder
		}

		// Closed orders keep their history without the table.
		if err := tx.Model(&models.Order{}).
			Where("table_id = ?", table.ID).
			Update("table_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&table).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionTableDelete, fmt.Sprintf("Table %s deleted", table.Name))
	return &table, nil
}

// ToggleReservation flips a table between empty and reserved.
func (s *TableService) ToggleReservation(ctx context.Context, actor Actor, id uint) (*models.Table, error) {
	var table models.Table
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}
		next := models.TableStatusReserved
		switch table.Status {
		case models.TableStatusOccupied:
			return ErrTableOccupied
		case models.TableStatusReserved:
			next = models.TableStatusEmpty
		}
		if err := tx.Model(&table).Update("status", next).Error; err != nil {
			return err
		}
		table.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	verb := "reserved"
	if table.Status == models.TableStatusEmpty {
		verb = "released"
	}
	s.log.Record(ctx, actor, models.ActionTableReservation, fmt.Sprintf("Table %s %s", table.Name, verb))
	return &table, nil
}

func validateTableName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", invalid("name", "is required")
	case len(name) > maxTableNameLength:
		return "", invalid("name", "must be at most %d characters", maxTableNameLength)
	case utils.LooksLikeURL(name):
		return "", invalid("name", "must not be a web address")
	}
	return name, nil
}
