package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const (
	productsPerPage = 8
	maxNameLength   = 100
	maxStock        = 999999
)

var maxPrice = decimal.RequireFromString("999999.99")

// CatalogService manages categories, products and the public menu.
type CatalogService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewCatalogService(db *gorm.DB, log *ActionLogger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

type CategoryInput struct {
	Name      string
	SortOrder int
	ImageURL  string
}

type CategoryView struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

func (s *CatalogService) Categories(ctx context.Context) ([]CategoryView, error) {
	db := s.db.WithContext(ctx)

	var categories []models.Category
	if err := db.Order("sort_order ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	if err := db.Model(&models.Product{}).
		Select("category_id, COUNT(*) AS total").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}

	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, CategoryView{Category: c, ProductCount: byCategory[c.ID]})
	}
	return views, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*models.Category, error) {
	name, err := validateName("name", in.Name)
	if err != nil {
		return nil, err
	}

	category := models.Category{Name: name, SortOrder: in.SortOrder, ImageURL: strings.TrimSpace(in.ImageURL)}
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureUniqueCategory(tx, name, 0); err != nil {
			return err
		}
		if err := ensureSingleOther(tx, name, 0); err != nil {
			return err
		}
		return tx.Create(&category).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionCategoryAdd, fmt.Sprintf("Category %s added", category.Name))
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor Actor, id uint, in CategoryInput) (*models.Category, error) {
	name, err := validateName("name", in.Name)
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if category.IsOther() && !models.IsOtherName(name) {
			return ErrProtectedCategory
		}
		if err := ensureUniqueCategory(tx, name, category.ID); err != nil {
			return err
		}
		if err := ensureSingleOther(tx, name, category.ID); err != nil {
			return err
		}
		category.Name = name
		category.SortOrder = in.SortOrder
		category.ImageURL = strings.TrimSpace(in.ImageURL)
		return tx.Model(&category).Select("name", "sort_order", "image_url").Updates(&category).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionCategoryUpdate, fmt.Sprintf("Category #%d updated: %s", category.ID, category.Name))
	return &category, nil
}

// DeleteCategory moves the category's products to Other, creating Other when
// needed, then deletes the category. It returns the number of products moved.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor Actor, id uint) (int, error) {
	var (
		category models.Category
		moved    int64
	)
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if category.IsOther() {
			return ErrProtectedCategory
		}

		other, err := findOrCreateOther(tx)
		if err != nil {
			return err
		}
		if err := ensureNoClashInOther(tx, category.ID, other.ID); err != nil {
			return err
		}
		res := tx.Model(&models.Product{}).
			Where("category_id = ?", category.ID).
			Update("category_id", other.ID)
		if res.Error != nil {
			return fmt.Errorf("reassign products: %w", res.Error)
		}
		moved = res.RowsAffected

		return tx.Delete(&category).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Record(ctx, actor, models.ActionCategoryDelete,
		fmt.Sprintf("Category %s deleted, %d products moved to %s", category.Name, moved, models.OtherCategoryName))
	return int(moved), nil
}

// MoveProductsToOther empties a category into Other without deleting it.
func (s *CatalogService) MoveProductsToOther(ctx context.Context, actor Actor, id uint) (int, error) {
	var (
		category models.Category
		moved    int64
	)
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if category.IsOther() {
			return ErrProtectedCategory
		}

		var count int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCategoryEmpty
		}

		other, err := findOrCreateOther(tx)
		if err != nil {
			return err
		}
		if err := ensureNoClashInOther(tx, category.ID, other.ID); err != nil {
			return err
		}
		res := tx.Model(&models.Product{}).
			Where("category_id = ?", category.ID).
			Update("category_id", other.ID)
		moved = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Record(ctx, actor, models.ActionCategoryUpdate,
		fmt.Sprintf("%d products moved from %s to %s", moved, category.Name, models.OtherCategoryName))
	return int(moved), nil
}

// Menu returns the categories in display order, each with its products that are
// on sale. Categories with nothing on sale are left out.
func (s *CatalogService) Menu(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("name ASC")
		}).
		Order("sort_order ASC").Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	menu := categories[:0]
	for _, c := range categories {
		if len(c.Products) > 0 {
			menu = append(menu, c)
		}
	}
	return menu, nil
}

type ProductInput struct {
	CategoryID uint
	Name       string
	Price      decimal.Decimal
	Stock      int
	Active     bool
	ImageURL   string
}

type ProductFilter struct {
	CategoryID *uint
	Search     string
	Active     *bool
	Sort       string
	Page       int
}

func (s *CatalogService) Products(ctx context.Context, f ProductFilter) ([]models.Product, utils.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id")
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.Active != nil {
		q = q.Where("products.active = ?", *f.Active)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(categories.name) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.NewPage(f.Page, productsPerPage, total)

	switch f.Sort {
	case "category":
		q = q.Order("categories.sort_order ASC").Order("categories.name ASC").Order("products.name ASC")
	case "price_asc":
		q = q.Order("products.price ASC")
	case "price_desc":
		q = q.Order("products.price DESC")
	case "stock_asc":
		q = q.Order("products.stock ASC")
	case "stock_desc":
		q = q.Order("products.stock DESC")
	default:
		q = q.Order("products.name ASC")
	}

	var products []models.Product
	err := q.Select("products.*").
		Preload("Category").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&products).Error
	return products, page, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	in, err := validateProduct(in)
	if err != nil {
		return nil, err
	}

	product := models.Product{
		CategoryID: in.CategoryID,
		Name:       in.Name,
		Price:      in.Price,
		Stock:      in.Stock,
		Active:     in.Active,
		ImageURL:   in.ImageURL,
	}
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&product.Category, in.CategoryID).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if err := ensureUniqueProduct(tx, in.CategoryID, in.Name, 0); err != nil {
			return err
		}
		return tx.Omit("Category").Create(&product).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionProductAdd,
		fmt.Sprintf("Product %s added at %s, stock %d", product.Name, utils.FormatCurrency(product.Price), product.Stock))
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uint, in ProductInput) (*models.Product, error) {
	in, err := validateProduct(in)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := tx.First(&product.Category, in.CategoryID).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if err := ensureUniqueProduct(tx, in.CategoryID, in.Name, product.ID); err != nil {
			return err
		}

		product.CategoryID = in.CategoryID
		product.Name = in.Name
		product.Price = in.Price
		product.Stock = in.Stock
		product.Active = in.Active
		product.ImageURL = in.ImageURL
		return tx.Model(&product).
			Select("category_id", "name", "price", "stock", "active", "image_url").
			Updates(&product).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionProductUpdate,
		fmt.Sprintf("Product #%d updated: %s, %s, stock %d", product.ID, product.Name, utils.FormatCurrency(product.Price), product.Stock))
	return &product, nil
}

// DeleteProduct hard-deletes a product nobody ever ordered. A product that
// appears on any order is taken off sale with zero stock instead; the bool
// result reports that case.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id uint) (bool, error) {
	var (
		product     models.Product
		deactivated bool
	)
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}

		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", product.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			deactivated = true
			return tx.Model(&product).Updates(map[string]interface{}{"active": false, "stock": 0}).Error
		}

		if err := tx.Model(&models.Feedback{}).
			Where("product_id = ?", product.ID).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return false, err
	}

	msg := fmt.Sprintf("Product %s deleted", product.Name)
	if deactivated {
		msg = fmt.Sprintf("Product %s taken off sale (has order history)", product.Name)
	}
	s.log.Record(ctx, actor, models.ActionProductDelete, msg)
	return deactivated, nil
}

// findOther returns the Other category, or nil when it does not exist yet.
func findOther(tx *gorm.DB) (*models.Category, error) {
	var candidates []models.Category
	if err := tx.Where("LOWER(name) IN ?", []string{"other", "diğer", "diger"}).
		Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].IsOther() {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func findOrCreateOther(tx *gorm.DB) (*models.Category, error) {
	existing, err := findOther(tx)
	if err != nil || existing != nil {
		return existing, err
	}

	other := models.Category{Name: models.OtherCategoryName, SortOrder: models.OtherCategorySortOrder}
	if err := tx.Create(&other).Error; err != nil {
		return nil, fmt.Errorf("create %s category: %w", models.OtherCategoryName, err)
	}
	return &other, nil
}

func ensureUniqueCategory(tx *gorm.DB, name string, selfID uint) error {
	var existing models.Category
	err := tx.Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), selfID).First(&existing).Error
	if err == nil {
		return ErrDuplicateName
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// ensureSingleOther rejects a second catch-all category under another spelling.
func ensureSingleOther(tx *gorm.DB, name string, selfID uint) error {
	if !models.IsOtherName(name) {
		return nil
	}
	other, err := findOther(tx)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return ErrDuplicateName
	}
	return nil
}

// ensureNoClashInOther fails when a product of categoryID shares its name with
// one already in Other, which the (category, name) index would reject.
func ensureNoClashInOther(tx *gorm.DB, categoryID, otherID uint) error {
	var names []string
	err := tx.Table("products AS p").
		Joins("JOIN products AS o ON LOWER(o.name) = LOWER(p.name) AND o.category_id = ?", otherID).
		Where("p.category_id = ?", categoryID).
		Order("p.name ASC").
		Pluck("p.name", &names).Error
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return fmt.Errorf("%w: %s", ErrOtherNameClash, strings.Join(names, ", "))
	}
	return nil
}

func ensureUniqueProduct(tx *gorm.DB, categoryID uint, name string, selfID uint) error {
	var existing models.Product
	err := tx.Where("category_id = ? AND LOWER(name) = ? AND id <> ?", categoryID, strings.ToLower(name), selfID).
		First(&existing).Error
	if err == nil {
		return ErrDuplicateName
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func validateName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", invalid(field, "is required")
	case len(name) > maxNameLength:
		return "", invalid(field, "must be at most %d characters", maxNameLength)
	case utils.LooksLikeURL(name):
		return "", invalid(field, "must not be a web address")
	}
	return name, nil
}

func validateProduct(in ProductInput) (ProductInput, error) {
	name, err := validateName("name", in.Name)
	if err != nil {
		return in, err
	}
	in.Name = name
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.CategoryID == 0 {
		return in, invalid("category_id", "is required")
	}
	if in.Price.IsNegative() || in.Price.GreaterThan(maxPrice) {
		return in, invalid("price", "must be between 0 and %s", maxPrice.StringFixed(2))
	}
	if in.Price.Exponent() < -2 {
		in.Price = in.Price.Round(2)
	}
	if in.Stock < 0 || in.Stock > maxStock {
		return in, invalid("stock", "must be between 0 and %d", maxStock)
	}
	return in, nil
}
