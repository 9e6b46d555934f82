package session

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the signed session token.
const CookieName = "pos_session"

var ErrNotFound = errors.New("session not found or expired")

// Session is the server-side record behind a signed token.
type Session struct {
	ID        string    `json:"id"`
	StaffID   uint      `json:"staff_id"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

func New(staffID uint, fullName, role string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		StaffID:   staffID,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now,
		LastSeen:  now,
	}
}

// WaiterCall is a customer's request for service at a table. There is at most
// one per table.
type WaiterCall struct {
	TableID   uint      `json:"table_id"`
	TableName string    `json:"table_name"`
	Note      string    `json:"note"`
	CalledAt  time.Time `json:"called_at"`
}

// Store keeps sessions with a sliding idle timeout, plus the shared waiter-call
// board.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns the session and extends its idle timeout.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteForStaff ends every session the staff member holds.
	DeleteForStaff(ctx context.Context, staffID uint) error

	// AddCall replaces the table's call and reports whether none was pending.
	AddCall(ctx context.Context, call WaiterCall) (bool, error)
	// Calls lists pending calls, oldest first.
	Calls(ctx context.Context) ([]WaiterCall, error)
	ClearCall(ctx context.Context, tableID uint) error

	Close() error
}

func sortCalls(calls []WaiterCall) {
	sort.Slice(calls, func(i, j int) bool {
		if !calls[i].CalledAt.Equal(calls[j].CalledAt) {
			return calls[i].CalledAt.Before(calls[j].CalledAt)
		}
		return calls[i].TableID < calls[j].TableID
	})
}
