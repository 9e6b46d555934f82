package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const (
	defaultReportDays = 30
	topProductsLimit  = 10
	topStaffLimit     = 5
	trailingDays      = 7
)

// ReportService computes read-only rollups over orders, payments and expenses.
type ReportService struct {
	db                *gorm.DB
	lowStockThreshold int
}

func NewReportService(db *gorm.DB, lowStockThreshold int) *ReportService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &ReportService{db: db, lowStockThreshold: lowStockThreshold}
}

type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ExpenseShare struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Share    decimal.Decimal `json:"share"`
}

type StaffSales struct {
	StaffID    uint            `json:"staff_id"`
	Name       string          `json:"name"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type CategorySales struct {
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Date   time.Time       `json:"date"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type PaymentMethodShare struct {
	Name   string          `json:"name"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	Share  decimal.Decimal `json:"share"`
}

type Report struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	PeriodLabel string    `json:"period_label"`

	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	CancelledCount    int             `json:"cancelled_count"`
	CancellationRate  decimal.Decimal `json:"cancellation_rate"`

	TopProducts      []ProductSales       `json:"top_products"`
	ExpenseBreakdown []ExpenseShare       `json:"expense_breakdown"`
	TopStaff         []StaffSales         `json:"top_staff"`
	CategorySales    []CategorySales      `json:"category_sales"`
	DailyRevenue     []DailyRevenue       `json:"daily_revenue"`
	PeakDay          *DailyRevenue        `json:"peak_day,omitempty"`
	PaymentMethods   []PaymentMethodShare `json:"payment_methods"`

	TodayOrderCount int64 `json:"today_order_count"`
	WeekOrderCount  int64 `json:"week_order_count"`
}

// ReportRange resolves optional bounds: to defaults to today, from to 30 days
// before to. Both are widened to whole days.
func ReportRange(from, to *time.Time, now time.Time) (time.Time, time.Time) {
	end := now
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -defaultReportDays)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		start, end = end, start
	}
	return utils.StartOfDay(start), utils.EndOfDay(end)
}

func periodLabel(from, to time.Time) string {
	days := int(to.Sub(from).Hours() / 24)
	switch {
	case days <= 1:
		return "daily"
	case days <= 7:
		return "weekly"
	case days <= 31:
		return "monthly"
	default:
		return "period"
	}
}

// Build computes the report for [from, to]. Cancelled orders only count toward
// the cancellation figures.
func (s *ReportService) Build(ctx context.Context, from, to time.Time) (*Report, error) {
	db := s.db.WithContext(ctx)
	r := &Report{
		From:              from,
		To:                to,
		PeriodLabel:       periodLabel(from, to),
		TotalRevenue:      decimal.Zero,
		TotalExpense:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		CancellationRate:  decimal.Zero,
		ProfitMargin:      decimal.Zero,
	}

	trailingStart := utils.StartOfDay(to).AddDate(0, 0, -(trailingDays - 1))
	paymentsFrom := from
	if trailingStart.Before(paymentsFrom) {
		paymentsFrom = trailingStart
	}
	var payments []models.Payment
	if err := db.Preload("PaymentMethod").
		Where("paid_at >= ? AND paid_at <= ?", paymentsFrom, to).
		Order("paid_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	s.applyPayments(r, payments)

	var expenses []models.Expense
	if err := db.Preload("Category").
		Where("spent_at >= ? AND spent_at <= ?", from, to).
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	applyExpenses(r, expenses)

	var orders []models.Order
	if err := db.Preload("Waiter").
		Preload("Items.Product.Category").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	applyOrders(r, orders)

	r.NetProfit = r.TotalRevenue.Sub(r.TotalExpense)
	r.ProfitMargin = utils.Percent(r.NetProfit, r.TotalRevenue)
	if r.OrderCount > 0 {
		r.AverageOrderValue = r.TotalRevenue.Div(decimal.NewFromInt(int64(r.OrderCount))).Round(2)
	}
	if all := r.OrderCount + r.CancelledCount; all > 0 {
		r.CancellationRate = utils.Percent(decimal.NewFromInt(int64(r.CancelledCount)), decimal.NewFromInt(int64(all)))
	}

	now := time.Now()
	today := utils.StartOfDay(now)
	weekday := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -weekday)
	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND status <> ?", today, models.OrderStatusCancelled).
		Count(&r.TodayOrderCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND status <> ?", weekStart, models.OrderStatusCancelled).
		Count(&r.WeekOrderCount).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportService) applyPayments(r *Report, payments []models.Payment) {
	trailingStart := utils.StartOfDay(r.To).AddDate(0, 0, -(trailingDays - 1))
	loc := trailingStart.Location()
	daily := make([]DailyRevenue, trailingDays)
	slot := make(map[string]int, trailingDays)
	for i := range daily {
		d := trailingStart.AddDate(0, 0, i)
		daily[i] = DailyRevenue{Date: d, Label: d.Format("02 Jan"), Amount: decimal.Zero}
		slot[d.Format("2006-01-02")] = i
	}

	byDay := map[string]*DailyRevenue{}
	byMethod := map[string]*PaymentMethodShare{}
	for _, p := range payments {
		// Slots are calendar days; a DST day is not 24 hours long.
		if idx, ok := slot[p.PaidAt.In(loc).Format("2006-01-02")]; ok {
			daily[idx].Amount = daily[idx].Amount.Add(p.Amount)
		}
		if p.PaidAt.Before(r.From) {
			continue
		}

		r.TotalRevenue = r.TotalRevenue.Add(p.Amount)

		day := utils.StartOfDay(p.PaidAt)
		key := day.Format("2006-01-02")
		if d, ok := byDay[key]; ok {
			d.Amount = d.Amount.Add(p.Amount)
		} else {
			byDay[key] = &DailyRevenue{Date: day, Label: day.Format("02 Jan 2006"), Amount: p.Amount}
		}

		name := p.PaymentMethod.Name
		m, ok := byMethod[name]
		if !ok {
			m = &PaymentMethodShare{Name: name, Amount: decimal.Zero}
			byMethod[name] = m
		}
		m.Count++
		m.Amount = m.Amount.Add(p.Amount)
	}
	r.DailyRevenue = daily

	for _, d := range byDay {
		if r.PeakDay == nil || d.Amount.GreaterThan(r.PeakDay.Amount) ||
			(d.Amount.Equal(r.PeakDay.Amount) && d.Date.Before(r.PeakDay.Date)) {
			peak := *d
			r.PeakDay = &peak
		}
	}

	r.PaymentMethods = make([]PaymentMethodShare, 0, len(byMethod))
	for _, m := range byMethod {
		m.Share = utils.Percent(m.Amount, r.TotalRevenue)
		r.PaymentMethods = append(r.PaymentMethods, *m)
	}
	sort.Slice(r.PaymentMethods, func(i, j int) bool {
		a, b := r.PaymentMethods[i], r.PaymentMethods[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
}

func applyExpenses(r *Report, expenses []models.Expense) {
	byCategory := map[string]decimal.Decimal{}
	for _, e := range expenses {
		r.TotalExpense = r.TotalExpense.Add(e.Amount)
		byCategory[e.Category.Name] = byCategory[e.Category.Name].Add(e.Amount)
	}

	r.ExpenseBreakdown = make([]ExpenseShare, 0, len(byCategory))
	for name, amount := range byCategory {
		r.ExpenseBreakdown = append(r.ExpenseBreakdown, ExpenseShare{
			Category: name,
			Amount:   amount,
			Share:    utils.Percent(amount, r.TotalExpense),
		})
	}
	sort.Slice(r.ExpenseBreakdown, func(i, j int) bool {
		a, b := r.ExpenseBreakdown[i], r.ExpenseBreakdown[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
}

func applyOrders(r *Report, orders []models.Order) {
	products := map[uint]*ProductSales{}
	staff := map[uint]*StaffSales{}
	categories := map[string]*CategorySales{}

	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			r.CancelledCount++
			continue
		}
		r.OrderCount++

		if o.Waiter != nil {
			st, ok := staff[o.Waiter.ID]
			if !ok {
				st = &StaffSales{StaffID: o.Waiter.ID, Name: o.Waiter.FullName, Revenue: decimal.Zero}
				staff[o.Waiter.ID] = st
			}
			st.OrderCount++
			st.Revenue = st.Revenue.Add(o.Total())
		}

		for _, item := range o.Items {
			line := item.LineTotal()

			p, ok := products[item.ProductID]
			if !ok {
				p = &ProductSales{ProductID: item.ProductID, Name: item.Product.Name, Revenue: decimal.Zero}
				products[item.ProductID] = p
			}
			p.Quantity += item.Quantity
			p.Revenue = p.Revenue.Add(line)

			name := item.Product.Category.Name
			if name == "" {
				name = "-"
			}
			c, ok := categories[name]
			if !ok {
				c = &CategorySales{Category: name, Revenue: decimal.Zero}
				categories[name] = c
			}
			c.Quantity += item.Quantity
			c.Revenue = c.Revenue.Add(line)
		}
	}

	r.TopProducts = make([]ProductSales, 0, len(products))
	for _, p := range products {
		r.TopProducts = append(r.TopProducts, *p)
	}
	sort.Slice(r.TopProducts, func(i, j int) bool {
		a, b := r.TopProducts[i], r.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(r.TopProducts) > topProductsLimit {
		r.TopProducts = r.TopProducts[:topProductsLimit]
	}

	r.TopStaff = make([]StaffSales, 0, len(staff))
	for _, st := range staff {
		r.TopStaff = append(r.TopStaff, *st)
	}
	sort.Slice(r.TopStaff, func(i, j int) bool {
		a, b := r.TopStaff[i], r.TopStaff[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(r.TopStaff) > topStaffLimit {
		r.TopStaff = r.TopStaff[:topStaffLimit]
	}

	r.CategorySales = make([]CategorySales, 0, len(categories))
	for _, c := range categories {
		r.CategorySales = append(r.CategorySales, *c)
	}
	sort.Slice(r.CategorySales, func(i, j int) bool {
		a, b := r.CategorySales[i], r.CategorySales[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Category < b.Category
	})
}

type StockAlerts struct {
	Critical          []models.Product `json:"critical"`
	OutOfStock        []models.Product `json:"out_of_stock"`
	OtherCategoryID   *uint            `json:"other_category_id,omitempty"`
	OtherProductCount int64            `json:"other_product_count"`
	Count             int              `json:"count"`
}

// StockAlerts lists products on sale that are running low or sold out, and how
// many products sit in the Other category waiting to be re-filed.
func (s *ReportService) StockAlerts(ctx context.Context) (*StockAlerts, error) {
	db := s.db.WithContext(ctx)
	alerts := &StockAlerts{}

	if err := db.Preload("Category").
		Where("active = ? AND stock > 0 AND stock < ?", true, s.lowStockThreshold).
		Order("stock ASC").Order("name ASC").
		Find(&alerts.Critical).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Category").
		Where("active = ? AND stock = 0", true).
		Order("name ASC").
		Find(&alerts.OutOfStock).Error; err != nil {
		return nil, err
	}

	other, err := findOther(db)
	if err != nil {
		return nil, err
	}
	if other != nil {
		alerts.OtherCategoryID = &other.ID
		if err := db.Model(&models.Product{}).Where("category_id = ?", other.ID).Count(&alerts.OtherProductCount).Error; err != nil {
			return nil, err
		}
	}

	alerts.Count = len(alerts.Critical) + len(alerts.OutOfStock)
	if alerts.OtherProductCount > 0 {
		alerts.Count++
	}
	return alerts, nil
}

type Dashboard struct {
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	TodayOrders    int64           `json:"today_orders"`
	OccupiedTables int64           `json:"occupied_tables"`
	TotalTables    int64           `json:"total_tables"`
	ActiveOrders   int64           `json:"active_orders"`
	Alerts         *StockAlerts    `json:"alerts"`
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	today := utils.StartOfDay(time.Now())
	d := &Dashboard{TodayRevenue: decimal.Zero}

	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).Where("paid_at >= ?", today).Pluck("amount", &amounts).Error; err != nil {
		return nil, err
	}
	for _, a := range amounts {
		d.TodayRevenue = d.TodayRevenue.Add(a)
	}

	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND status <> ?", today, models.OrderStatusCancelled).
		Count(&d.TodayOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status IN ?", models.OpenOrderStatuses).
		Count(&d.ActiveOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Table{}).Count(&d.TotalTables).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Table{}).
		Where("status = ?", models.TableStatusOccupied).
		Count(&d.OccupiedTables).Error; err != nil {
		return nil, err
	}

	alerts, err := s.StockAlerts(ctx)
	if err != nil {
		return nil, err
	}
	d.Alerts = alerts
	return d, nil
}
