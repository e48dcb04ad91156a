package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/service"
)

// productRequest serves both create and partial update; absent fields
// decode to nil.
type productRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
}

func (h HandlerSet) ListProducts(c *gin.Context) {
	listings, err := h.catalog.ListPublic(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, listingResponse{
			productResponse: newProductResponse(l.Product),
			FarmerName:      l.FarmerName,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) ListMyProducts(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	products, err := h.catalog.ListMine(c.Request.Context(), claims)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	input := service.CreateProductInput{
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}

	product, err := h.catalog.Create(c.Request.Context(), claims, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProductResponse(product))
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), claims, c.Param("id"), models.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(product))
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	if err := h.catalog.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
