package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const logsPerPage = 20

type ActionLogger struct {
	db *gorm.DB
}

func NewActionLogger(db *gorm.DB) *ActionLogger {
	return &ActionLogger{db: db}
}

// Record appends an audit entry. A failed write is reported to the error log
// and never returned.
func (l *ActionLogger) Record(ctx context.Context, actor Actor, action, description string) {
	if len(description) > 500 {
		description = description[:500]
	}
	entry := models.ActionLog{
		StaffID:     actor.staffRef(),
		Action:      action,
		Description: description,
		IPAddress:   actor.IP,
		CreatedAt:   time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"action":   action,
			"staff_id": actor.StaffID,
		}).Errorf("action log write failed: %v", err)
	}
}

type LogFilter struct {
	From    *time.Time
	To      *time.Time
	Action  string
	StaffID *uint
	Search  string
	Page    int
}

func (l *ActionLogger) List(ctx context.Context, f LogFilter) ([]models.ActionLog, utils.Page, error) {
	q := l.db.WithContext(ctx).Model(&models.ActionLog{})
	if f.From != nil {
		q = q.Where("action_logs.created_at >= ?", utils.StartOfDay(*f.From))
	}
	if f.To != nil {
		q = q.Where("action_logs.created_at <= ?", utils.EndOfDay(*f.To))
	}
	if f.Action != "" {
		q = q.Where("action_logs.action = ?", f.Action)
	}
	if f.StaffID != nil {
		q = q.Where("action_logs.staff_id = ?", *f.StaffID)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(action_logs.description) LIKE ? OR LOWER(action_logs.ip_address) LIKE ?)", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.NewPage(f.Page, logsPerPage, total)

	var logs []models.ActionLog
	err := q.Preload("Staff").
		Order("action_logs.created_at DESC").Order("action_logs.id DESC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&logs).Error
	return logs, page, err
}
