package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type ExpenseController struct {
	Expenses *services.ExpenseService
}

func NewExpenseController(expenses *services.ExpenseService) *ExpenseController {
	return &ExpenseController{Expenses: expenses}
}

type expenseRequest struct {
	CategoryID  uint         `json:"category_id" form:"category_id" binding:"required"`
	Amount      utils.Amount `json:"amount" form:"amount"`
	Description string       `json:"description" form:"description" binding:"omitempty,nourl"`
	// SpentAt is a yyyy-mm-dd date; empty means now.
	SpentAt string `json:"spent_at" form:"spent_at"`
}

func (r expenseRequest) input() (services.ExpenseInput, error) {
	if !r.Amount.Present {
		return services.ExpenseInput{}, errors.New("amount is required")
	}
	in := services.ExpenseInput{
		CategoryID:  r.CategoryID,
		Amount:      r.Amount.Decimal,
		Description: r.Description,
	}
	if r.SpentAt != "" {
		t, err := time.ParseInLocation("2006-01-02", r.SpentAt, time.Local)
		if err != nil {
			return in, errors.New("spent_at must be a date like 2024-01-31")
		}
		in.SpentAt = t
	}
	return in, nil
}

func (ec *ExpenseController) bind(c *gin.Context) (services.ExpenseInput, bool) {
	var req expenseRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return services.ExpenseInput{}, false
	}
	in, err := req.input()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return in, false
	}
	return in, true
}

// GetExpenseCategories -> GET /admin/expense-categories
func (ec *ExpenseController) GetExpenseCategories(c *gin.Context) {
	categories, err := ec.Expenses.Categories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of expense categories", categories)
}

// GetAllExpenses -> GET /admin/expenses
func (ec *ExpenseController) GetAllExpenses(c *gin.Context) {
	list, err := ec.Expenses.List(c.Request.Context(), services.ExpenseFilter{
		From:       utils.QueryDate(c, "from"),
		To:         utils.QueryDate(c, "to"),
		CategoryID: utils.QueryUint(c, "category_id"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Page:       utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of expenses", list)
}

// CreateExpense -> POST /admin/expenses
func (ec *ExpenseController) CreateExpense(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	in, ok := ec.bind(c)
	if !ok {
		return
	}

	expense, err := ec.Expenses.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Expense of "+utils.FormatCurrency(expense.Amount)+" added", expense)
}

// UpdateExpense -> PUT /admin/expenses/:id
func (ec *ExpenseController) UpdateExpense(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, ok := ec.bind(c)
	if !ok {
		return
	}

	expense, err := ec.Expenses.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expense updated", expense)
}

// DeleteExpense -> DELETE /admin/expenses/:id
func (ec *ExpenseController) DeleteExpense(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := ec.Expenses.Delete(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expense deleted", nil)
}
