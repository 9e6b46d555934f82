package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type FeedbackController struct {
	Feedback *services.FeedbackService
}

func NewFeedbackController(feedback *services.FeedbackService) *FeedbackController {
	return &FeedbackController{Feedback: feedback}
}

// GetAllFeedback -> GET /admin/feedback
func (fc *FeedbackController) GetAllFeedback(c *gin.Context) {
	list, err := fc.Feedback.List(c.Request.Context(), services.FeedbackFilter{
		From:       utils.QueryDate(c, "from"),
		To:         utils.QueryDate(c, "to"),
		CategoryID: utils.QueryUint(c, "category_id"),
		ProductID:  utils.QueryUint(c, "product_id"),
		TypeID:     utils.QueryUint(c, "type_id"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Page:       utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of feedback", list)
}

// DeleteFeedback -> DELETE /admin/feedback/:id
func (fc *FeedbackController) DeleteFeedback(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := fc.Feedback.Delete(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Feedback deleted", nil)
}
