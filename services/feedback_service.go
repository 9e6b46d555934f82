package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

const (
	feedbackPerPage   = 10
	maxCommentLength  = 1000
	topCommentedLimit = 5
)

type FeedbackService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewFeedbackService(db *gorm.DB, log *ActionLogger) *FeedbackService {
	return &FeedbackService{db: db, log: log}
}

type FeedbackInput struct {
	TypeID    uint
	ProductID *uint
	Rating    int
	Comment   string
}

type FeedbackFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uint
	ProductID  *uint
	TypeID     *uint
	Search     string
	Sort       string
	Page       int
}

type ProductRating struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Comments      int             `json:"comments"`
	AverageRating decimal.Decimal `json:"average_rating"`
}

type FeedbackStats struct {
	Total         int64           `json:"total"`
	AverageRating decimal.Decimal `json:"average_rating"`
	// Distribution[i] counts ratings of i+1 stars.
	Distribution  [5]int64        `json:"distribution"`
	MostCommented []ProductRating `json:"most_commented"`
}

type FeedbackList struct {
	Feedback []models.Feedback `json:"feedback"`
	Page     utils.Page        `json:"page"`
	Stats    FeedbackStats     `json:"stats"`
}

func (s *FeedbackService) Types(ctx context.Context) ([]models.FeedbackType, error) {
	var types []models.FeedbackType
	err := s.db.WithContext(ctx).Order("id ASC").Find(&types).Error
	return types, err
}

// Submit stores a customer's feedback. There is no actor: customers are anonymous.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalid("rating", "must be between 1 and 5")
	}
	if len(in.Comment) > maxCommentLength {
		return nil, invalid("comment", "must be at most %d characters", maxCommentLength)
	}
	if utils.LooksLikeURL(in.Comment) {
		return nil, invalid("comment", "must not be a web address")
	}

	feedback := models.Feedback{
		TypeID:    in.TypeID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&feedback.Type, in.TypeID).Error; err != nil {
			return notFound(err, ErrFeedbackTypeNotFound)
		}
		if in.ProductID != nil {
			var product models.Product
			if err := tx.First(&product, *in.ProductID).Error; err != nil {
				return notFound(err, ErrProductNotFound)
			}
		}
		return tx.Omit("Type", "Product").Create(&feedback).Error
	})
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

// List returns one page of feedback together with stats over every match.
// f.To defaults to today.
func (s *FeedbackService) List(ctx context.Context, f FeedbackFilter) (*FeedbackList, error) {
	to := time.Now()
	if f.To != nil {
		to = *f.To
	}

	q := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Joins("LEFT JOIN products ON products.id = feedbacks.product_id").
		Joins("JOIN feedback_types ON feedback_types.id = feedbacks.type_id").
		Where("feedbacks.created_at <= ?", utils.EndOfDay(to))
	if f.From != nil {
		q = q.Where("feedbacks.created_at >= ?", utils.StartOfDay(*f.From))
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.ProductID != nil {
		q = q.Where("feedbacks.product_id = ?", *f.ProductID)
	}
	if f.TypeID != nil {
		q = q.Where("feedbacks.type_id = ?", *f.TypeID)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(feedbacks.comment) LIKE ? OR LOWER(products.name) LIKE ? OR LOWER(feedback_types.name) LIKE ?)", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	stats, err := feedbackStats(q)
	if err != nil {
		return nil, err
	}
	page := utils.NewPage(f.Page, feedbackPerPage, stats.Total)

	switch f.Sort {
	case "oldest":
		q = q.Order("feedbacks.created_at ASC")
	case "rating_desc":
		q = q.Order("feedbacks.rating DESC").Order("feedbacks.created_at DESC")
	case "rating_asc":
		q = q.Order("feedbacks.rating ASC").Order("feedbacks.created_at DESC")
	default:
		q = q.Order("feedbacks.created_at DESC")
	}

	var feedback []models.Feedback
	if err := q.Select("feedbacks.*").
		Preload("Type").
		Preload("Product").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&feedback).Error; err != nil {
		return nil, err
	}
	return &FeedbackList{Feedback: feedback, Page: page, Stats: *stats}, nil
}

func (s *FeedbackService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)

	var feedback models.Feedback
	if err := db.First(&feedback, id).Error; err != nil {
		return notFound(err, ErrFeedbackNotFound)
	}
	if err := db.Delete(&feedback).Error; err != nil {
		return err
	}

	s.log.Record(ctx, actor, models.ActionFeedbackDelete,
		fmt.Sprintf("Feedback #%d deleted (%d stars)", feedback.ID, feedback.Rating))
	return nil
}

func feedbackStats(q *gorm.DB) (*FeedbackStats, error) {
	var rows []struct {
		Rating      int
		ProductID   *uint
		ProductName *string
	}
	if err := q.Select("feedbacks.rating AS rating, feedbacks.product_id AS product_id, products.name AS product_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &FeedbackStats{AverageRating: decimal.Zero, MostCommented: []ProductRating{}}
	byProduct := map[uint]*ProductRating{}
	sums := map[uint]int{}
	ratingSum := 0
	for _, r := range rows {
		stats.Total++
		ratingSum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			stats.Distribution[r.Rating-1]++
		}
		if r.ProductID == nil {
			continue
		}
		pr, ok := byProduct[*r.ProductID]
		if !ok {
			name := ""
			if r.ProductName != nil {
				name = *r.ProductName
			}
			pr = &ProductRating{ProductID: *r.ProductID, Name: name}
			byProduct[*r.ProductID] = pr
		}
		pr.Comments++
		sums[*r.ProductID] += r.Rating
	}
	if stats.Total > 0 {
		stats.AverageRating = decimal.NewFromInt(int64(ratingSum)).
			Div(decimal.NewFromInt(stats.Total)).Round(2)
	}

	for id, pr := range byProduct {
		pr.AverageRating = decimal.NewFromInt(int64(sums[id])).
			Div(decimal.NewFromInt(int64(pr.Comments))).Round(2)
		stats.MostCommented = append(stats.MostCommented, *pr)
	}
	sort.Slice(stats.MostCommented, func(i, j int) bool {
		a, b := stats.MostCommented[i], stats.MostCommented[j]
		if a.Comments != b.Comments {
			return a.Comments > b.Comments
		}
		return a.Name < b.Name
	})
	if len(stats.MostCommented) > topCommentedLimit {
		stats.MostCommented = stats.MostCommented[:topCommentedLimit]
	}
	return stats, nil
}
