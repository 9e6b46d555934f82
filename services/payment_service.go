package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// PaymentService closes orders against a payment method.
type PaymentService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewPaymentService(db *gorm.DB, log *ActionLogger) *PaymentService {
	return &PaymentService{db: db, log: log}
}

// TakePayment records a payment for the order total, completes the order and
// frees its table. The closed order is returned alongside the payment.
func (s *PaymentService) TakePayment(ctx context.Context, actor Actor, orderID, methodID uint) (*models.Payment, *models.Order, error) {
	var (
		payment *models.Payment
		order   *models.Order
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

		var method models.PaymentMethod
		if err := tx.First(&method, methodID).Error; err != nil {
			return notFound(err, ErrPaymentMethodNotFound)
		}

		now := time.Now()
		payment = &models.Payment{
			OrderID:         order.ID,
			PaymentMethodID: method.ID,
			StaffID:         actor.staffRef(),
			Amount:          order.Total(),
			PaidAt:          now,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		payment.PaymentMethod = method

		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":    models.OrderStatusCompleted,
			"closed_at": now,
		}).Error; err != nil {
			return err
		}
		order.Status = models.OrderStatusCompleted
		order.ClosedAt = &now

		return releaseTable(tx, order)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Record(ctx, actor, models.ActionPaymentTake,
		fmt.Sprintf("Order #%d paid: %s by %s", order.ID, utils.FormatCurrency(payment.Amount), payment.PaymentMethod.Name))
	return payment, order, nil
}

// Methods lists the payment methods a waiter can pick from.
func (s *PaymentService) Methods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.WithContext(ctx).Order("id ASC").Find(&methods).Error
	return methods, err
}
