package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type CategoryController struct {
	Catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{Catalog: catalog}
}

type categoryRequest struct {
	Name      string `json:"name" form:"name" binding:"required,notblank,nourl"`
	SortOrder int    `json:"sort_order" form:"sort_order"`
	ImageURL  string `json:"image_url" form:"image_url"`
}

func (r categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{Name: r.Name, SortOrder: r.SortOrder, ImageURL: r.ImageURL}
}

// GetAllCategories -> GET /admin/categories
func (cc *CategoryController) GetAllCategories(c *gin.Context) {
	categories, err := cc.Catalog.Categories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// CreateCategory -> POST /admin/categories
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := cc.Catalog.CreateCategory(c.Request.Context(), actor, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category "+category.Name+" added", category)
}

// UpdateCategory -> PUT /admin/categories/:id
func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := cc.Catalog.UpdateCategory(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category "+category.Name+" updated", category)
}

// DeleteCategory -> DELETE /admin/categories/:id
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	moved, err := cc.Catalog.DeleteCategory(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	msg := "Category deleted"
	if moved > 0 {
		msg = fmt.Sprintf("Category deleted, %d products moved to Other", moved)
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{"moved": moved})
}

// MoveToOther -> POST /admin/categories/:id/move-to-other
func (cc *CategoryController) MoveToOther(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	moved, err := cc.Catalog.MoveProductsToOther(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("%d products moved to Other", moved), gin.H{"moved": moved})
}
