package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Actor is the authenticated staff member behind a request.
type Actor struct {
	StaffID uint
	Name    string
	Role    string
	IP      string
}

func (a Actor) staffRef() *uint {
	if a.StaffID == 0 {
		return nil
	}
	id := a.StaffID
	return &id
}

// runTx executes fn in a single database transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// notFound maps gorm's record-not-found to the given sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
