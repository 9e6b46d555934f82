package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type ProductController struct {
	Catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{Catalog: catalog}
}

type productRequest struct {
	CategoryID uint         `json:"category_id" form:"category_id" binding:"required"`
	Name       string       `json:"name" form:"name" binding:"required,notblank,nourl"`
	Price      utils.Amount `json:"price" form:"price"`
	Stock      int          `json:"stock" form:"stock"`
	Active     *bool        `json:"active" form:"active"`
	ImageURL   string       `json:"image_url" form:"image_url"`
}

func (r productRequest) input() (services.ProductInput, error) {
	if !r.Price.Present {
		return services.ProductInput{}, errors.New("price is required")
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return services.ProductInput{
		CategoryID: r.CategoryID,
		Name:       r.Name,
		Price:      r.Price.Decimal,
		Stock:      r.Stock,
		Active:     active,
		ImageURL:   r.ImageURL,
	}, nil
}

func (pc *ProductController) bind(c *gin.Context) (services.ProductInput, bool) {
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return services.ProductInput{}, false
	}
	in, err := req.input()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return services.ProductInput{}, false
	}
	return in, true
}

// GetAllProducts -> GET /admin/products
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	products, page, err := pc.Catalog.Products(c.Request.Context(), services.ProductFilter{
		CategoryID: utils.QueryUint(c, "category_id"),
		Search:     c.Query("search"),
		Active:     utils.QueryBool(c, "active"),
		Sort:       c.Query("sort"),
		Page:       utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", listResponse{Items: products, Page: page})
}

// CreateProduct -> POST /admin/products
func (pc *ProductController) CreateProduct(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	in, ok := pc.bind(c)
	if !ok {
		return
	}

	product, err := pc.Catalog.CreateProduct(c.Request.Context(), actor, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product "+product.Name+" added", product)
}

// UpdateProduct -> PUT /admin/products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, ok := pc.bind(c)
	if !ok {
		return
	}

	product, err := pc.Catalog.UpdateProduct(c.Request.Context(), actor, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product "+product.Name+" updated", product)
}

// DeleteProduct -> DELETE /admin/products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deactivated, err := pc.Catalog.DeleteProduct(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	msg := "Product deleted"
	if deactivated {
		msg = "Product has order history, so it was taken off sale instead of deleted"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{"deactivated": deactivated})
}
