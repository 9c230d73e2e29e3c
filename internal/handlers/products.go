package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketplace-app-server/internal/middleware"
	"marketplace-app-server/internal/models"
	"marketplace-app-server/internal/utils"
)

// ProductHandler handles marketplace listing requests.
type ProductHandler struct {
	DB *gorm.DB
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

// CreateProductRequest represents the request body for creating a listing.
// Images are supplied as already-hosted URLs.
type CreateProductRequest struct {
	ProductName string   `json:"productName" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Condition   string   `json:"condition" binding:"required,oneof=new used refurbished"`
	Location    string   `json:"location" binding:"required"`
	Images      []string `json:"productImage" binding:"required,min=1,max=5"`
}

// CreateProduct handles creating a new listing for the authenticated user.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ownerID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	product := models.Product{
		ProductName: strings.TrimSpace(req.ProductName),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Condition:   models.ProductCondition(req.Condition),
		Location:    strings.TrimSpace(req.Location),
		Images:      req.Images,
		OwnerID:     ownerID,
	}

	if err := h.DB.Create(&product).Error; err != nil {
		utils.InternalServerError(c, "Failed to create product: "+err.Error())
		return
	}

	utils.Created(c, "Product created successfully", product)
}

// ProductPage is a paginated slice of listings.
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int64            `json:"totalPages"`
}

func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "12"))
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

func (h *ProductHandler) listPage(c *gin.Context, query *gorm.DB, fetchedMessage string) {
	page, limit, offset := pagination(c)

	// New session so the count and the page query don't share statement state.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count products: "+err.Error())
		return
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch products: "+err.Error())
		return
	}

	utils.Success(c, fetchedMessage, ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	})
}

// GetAllProducts handles fetching all listings with pagination.
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	h.listPage(c, h.DB.Model(&models.Product{}), "Products fetched successfully")
}

// GetProductsByCategory handles fetching listings in one category.
func (h *ProductHandler) GetProductsByCategory(c *gin.Context) {
	category := c.Param("category")
	query := h.DB.Model(&models.Product{}).Where("LOWER(category) = LOWER(?)", category)
	h.listPage(c, query, "Products fetched successfully")
}

// SearchProducts handles free-text search over listings.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		utils.BadRequest(c, "Search query 'q' is required")
		return
	}

	pattern := "%" + q + "%"
	query := h.DB.Model(&models.Product{}).
		Where("product_name LIKE ? OR description LIKE ? OR category LIKE ?", pattern, pattern, pattern)
	h.listPage(c, query, "Search results fetched successfully")
}

// GetRecentProducts handles fetching the ten newest listings.
func (h *ProductHandler) GetRecentProducts(c *gin.Context) {
	var products []models.Product
	if err := h.DB.Order("created_at DESC").Limit(10).Find(&products).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch products: "+err.Error())
		return
	}

	utils.Success(c, "Recent products fetched successfully", products)
}

// GetProductByID handles fetching a single listing by ID.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID := c.Param("productId")

	var product models.Product
	if err := h.DB.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Product not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Product fetched successfully", product)
}
