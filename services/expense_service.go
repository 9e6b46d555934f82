package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const expensesPerPage = 10

type ExpenseService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewExpenseService(db *gorm.DB, log *ActionLogger) *ExpenseService {
	return &ExpenseService{db: db, log: log}
}

type ExpenseInput struct {
	CategoryID  uint
	Amount      decimal.Decimal
	Description string
	// SpentAt defaults to now when zero.
	SpentAt time.Time
}

type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uint
	Search     string
	Sort       string
	Page       int
}

type ExpenseList struct {
	Expenses []models.Expense `json:"expenses"`
	Page     utils.Page       `json:"page"`
	// Total is the sum over every expense matching the filter, not just this page.
	Total decimal.Decimal `json:"total"`
}

func (s *ExpenseService) Categories(ctx context.Context) ([]models.ExpenseCategory, error) {
	var categories []models.ExpenseCategory
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// List shows expenses up to the end of f.To, which defaults to today.
func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) (*ExpenseList, error) {
	to := time.Now()
	if f.To != nil {
		to = *f.To
	}

	q := s.db.WithContext(ctx).Model(&models.Expense{}).
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Where("expenses.spent_at <= ?", utils.EndOfDay(to))
	if f.From != nil {
		q = q.Where("expenses.spent_at >= ?", utils.StartOfDay(*f.From))
	}
	if f.CategoryID != nil {
		q = q.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(expenses.description) LIKE ? OR LOWER(expense_categories.name) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	page := utils.NewPage(f.Page, expensesPerPage, total)

	var amounts []decimal.Decimal
	if err := q.Pluck("expenses.amount", &amounts).Error; err != nil {
		return nil, err
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}

	switch f.Sort {
	case "oldest":
		q = q.Order("expenses.spent_at ASC")
	case "amount_asc":
		q = q.Order("expenses.amount ASC")
	case "amount_desc":
		q = q.Order("expenses.amount DESC")
	case "category":
		q = q.Order("expense_categories.name ASC").Order("expenses.spent_at DESC")
	default:
		q = q.Order("expenses.spent_at DESC")
	}

	var expenses []models.Expense
	if err := q.Select("expenses.*").
		Preload("Category").
		Preload("Staff").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return &ExpenseList{Expenses: expenses, Page: page, Total: sum}, nil
}

func (s *ExpenseService) Create(ctx context.Context, actor Actor, in ExpenseInput) (*models.Expense, error) {
	in, err := validateExpense(in)
	if err != nil {
		return nil, err
	}

	expense := models.Expense{
		CategoryID:  in.CategoryID,
		StaffID:     actor.staffRef(),
		Amount:      in.Amount,
		Description: in.Description,
		SpentAt:     in.SpentAt,
	}
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&expense.Category, in.CategoryID).Error; err != nil {
			return notFound(err, ErrExpenseCategoryNotFound)
		}
		return tx.Omit("Category", "Staff").Create(&expense).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionExpenseAdd,
		fmt.Sprintf("Expense %s (%s) added", utils.FormatCurrency(expense.Amount), expense.Category.Name))
	return &expense, nil
}

func (s *ExpenseService) Update(ctx context.Context, actor Actor, id uint, in ExpenseInput) (*models.Expense, error) {
	in, err := validateExpense(in)
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err, ErrExpenseNotFound)
		}
		if err := tx.First(&expense.Category, in.CategoryID).Error; err != nil {
			return notFound(err, ErrExpenseCategoryNotFound)
		}
		expense.CategoryID = in.CategoryID
		expense.Amount = in.Amount
		expense.Description = in.Description
		expense.SpentAt = in.SpentAt
		return tx.Model(&expense).
			Select("category_id", "amount", "description", "spent_at").
			Updates(&expense).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionExpenseUpdate,
		fmt.Sprintf("Expense #%d updated: %s (%s)", expense.ID, utils.FormatCurrency(expense.Amount), expense.Category.Name))
	return &expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, actor Actor, id uint) error {
	var expense models.Expense
	db := s.db.WithContext(ctx)
	if err := db.Preload("Category").First(&expense, id).Error; err != nil {
		return notFound(err, ErrExpenseNotFound)
	}
	if err := db.Delete(&expense).Error; err != nil {
		return err
	}

	s.log.Record(ctx, actor, models.ActionExpenseDelete,
		fmt.Sprintf("Expense #%d deleted: %s (%s)", expense.ID, utils.FormatCurrency(expense.Amount), expense.Category.Name))
	return nil
}

func validateExpense(in ExpenseInput) (ExpenseInput, error) {
	if in.CategoryID == 0 {
		return in, invalid("category_id", "is required")
	}
	if in.Amount.IsNegative() || in.Amount.GreaterThan(maxPrice) {
		return in, invalid("amount", "must be between 0 and %s", maxPrice.StringFixed(2))
	}
	in.Amount = in.Amount.Round(2)
	in.Description = strings.TrimSpace(in.Description)
	if len(in.Description) > 500 {
		return in, invalid("description", "must be at most 500 characters")
	}
	if in.SpentAt.IsZero() {
		in.SpentAt = time.Now()
	}
	return in, nil
}
