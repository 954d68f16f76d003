package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/models"
	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ItemRequest struct {
	Name        string            `json:"name" form:"name" validate:"required"`
	Price       float64           `json:"price" form:"price" validate:"required,gt=0"`
	Importance  models.Importance `json:"importance" form:"importance"`
	Description string            `json:"description" form:"description"`
	ImageURL    string            `json:"imageUrl" form:"imageUrl"`
}

type CreateWishlistRequest struct {
	Name       string            `json:"name" form:"name" validate:"required"`
	Currency   string            `json:"currency" form:"currency" validate:"required"`
	Plan       models.Plan       `json:"plan" form:"plan"`
	Goal       float64           `json:"goal" form:"goal" validate:"gte=0"`
	Importance models.Importance `json:"importance" form:"importance"`
	ImageURL   string            `json:"imageUrl" form:"imageUrl"`
	Items      []ItemRequest     `json:"items" form:"-" validate:"dive"`
}

type UpdateWishlistRequest struct {
	WishlistID string             `json:"wishlistId" form:"wishlistId" validate:"required"`
	Name       *string            `json:"name" form:"name"`
	Currency   *string            `json:"currency" form:"currency"`
	Plan       *models.Plan       `json:"plan" form:"plan"`
	Goal       *float64           `json:"goal" form:"goal"`
	Importance *models.Importance `json:"importance" form:"importance"`
	ImageURL   *string            `json:"imageUrl" form:"imageUrl"`
}

type AddItemRequest struct {
	WishlistID string `json:"wishlistId" form:"wishlistId" validate:"required"`
	ItemRequest
}

type UpdateItemRequest struct {
	WishlistID  string             `json:"wishlistId" form:"wishlistId" validate:"required"`
	ItemID      string             `json:"itemId" form:"itemId" validate:"required"`
	Name        *string            `json:"name" form:"name"`
	Price       *float64           `json:"price" form:"price"`
	Importance  *models.Importance `json:"importance" form:"importance"`
	Description *string            `json:"description" form:"description"`
	ImageURL    *string            `json:"imageUrl" form:"imageUrl"`
}

type PaymentRequest struct {
	WishlistID string  `json:"wishlistId" validate:"required"`
	ItemID     string  `json:"itemId"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

type WishlistController struct {
	WishlistService services.WishlistService
	log             *logrus.Logger
}

func WishlistConstructor(wishlistService services.WishlistService, log *logrus.Logger) WishlistController {
	return WishlistController{
		WishlistService: wishlistService,
		log:             log,
	}
}

func (wc *WishlistController) List(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	wishlists, err := wc.WishlistService.List(ctx.Request.Context(), user.Id)
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Wishlists retrieved", wishlists)
}

func (wc *WishlistController) Create(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req CreateWishlistRequest
	if !bind(ctx, &req, ctx.ShouldBind) {
		return
	}
	image, ok := wc.readImage(ctx)
	if !ok {
		return
	}

	input := services.WishlistInput{
		Name:       req.Name,
		Currency:   req.Currency,
		Plan:       req.Plan,
		Goal:       req.Goal,
		Importance: req.Importance,
		ImageURL:   req.ImageURL,
		Image:      image,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, itemInput(item))
	}

	wishlist, err := wc.WishlistService.Create(ctx.Request.Context(), user.Id, input)
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusCreated, "Wishlist created", wishlist)
}

func (wc *WishlistController) Update(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req UpdateWishlistRequest
	if !bind(ctx, &req, ctx.ShouldBind) {
		return
	}
	image, ok := wc.readImage(ctx)
	if !ok {
		return
	}

	wishlist, err := wc.WishlistService.Update(ctx.Request.Context(), user.Id, services.WishlistUpdate{
		WishlistID: req.WishlistID,
		Name:       req.Name,
		Currency:   req.Currency,
		Plan:       req.Plan,
		Goal:       req.Goal,
		Importance: req.Importance,
		ImageURL:   req.ImageURL,
		Image:      image,
	})
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Wishlist updated", wishlist)
}

func (wc *WishlistController) Delete(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	if err := wc.WishlistService.Delete(ctx.Request.Context(), user.Id, ctx.Param("id")); err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Wishlist deleted", nil)
}

func (wc *WishlistController) Items(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	wishlist, err := wc.WishlistService.Get(ctx.Request.Context(), user.Id, ctx.Param("wishlistId"))
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Wishlist retrieved", wishlist)
}

func (wc *WishlistController) AddItem(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req AddItemRequest
	if !bind(ctx, &req, ctx.ShouldBind) {
		return
	}
	image, ok := wc.readImage(ctx)
	if !ok {
		return
	}

	input := itemInput(req.ItemRequest)
	input.Image = image
	wishlist, err := wc.WishlistService.AddItem(ctx.Request.Context(), user.Id, services.NewItem{
		WishlistID: req.WishlistID,
		ItemInput:  input,
	})
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusCreated, "Item added", wishlist)
}

func (wc *WishlistController) UpdateItem(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req UpdateItemRequest
	if !bind(ctx, &req, ctx.ShouldBind) {
		return
	}
	image, ok := wc.readImage(ctx)
	if !ok {
		return
	}

	wishlist, err := wc.WishlistService.UpdateItem(ctx.Request.Context(), user.Id, services.ItemUpdate{
		WishlistID:  req.WishlistID,
		ItemID:      req.ItemID,
		Name:        req.Name,
		Price:       req.Price,
		Importance:  req.Importance,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Image:       image,
	})
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Item updated", wishlist)
}

func (wc *WishlistController) DeleteItem(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	wishlist, err := wc.WishlistService.DeleteItem(ctx.Request.Context(), user.Id, ctx.Param("wishlistId"), ctx.Param("itemId"))
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Item deleted", wishlist)
}

func (wc *WishlistController) Payment(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req PaymentRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	wishlist, err := wc.WishlistService.RecordPayment(ctx.Request.Context(), user.Id, services.SelfPayment{
		WishlistID: req.WishlistID,
		ItemID:     req.ItemID,
		Amount:     req.Amount,
	})
	if err != nil {
		fail(ctx, wc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Payment recorded", wishlist)
}

// readImage returns the optional multipart "image" file. A request that is
// not multipart has no image.
func (wc *WishlistController) readImage(ctx *gin.Context) (*services.ImageUpload, bool) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return nil, true
	}
	header, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid_input", "Could not read image upload")
		return nil, false
	}
	if header.Size > services.MaxImageSize {
		respondError(ctx, http.StatusBadRequest, "invalid_input", "Image must be 5MB or smaller")
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		fail(ctx, wc.log, err)
		return nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		fail(ctx, wc.log, err)
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &services.ImageUpload{Data: data, ContentType: contentType}, true
}

func itemInput(req ItemRequest) services.ItemInput {
	return services.ItemInput{
		Name:        req.Name,
		Price:       req.Price,
		Importance:  req.Importance,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
}

func (wc *WishlistController) WishlistRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	wishlistRoute := rg.Group("/wishlist", auth)
	wishlistRoute.GET("/list", wc.List)
	wishlistRoute.POST("/create", wc.Create)
	wishlistRoute.POST("/update", wc.Update)
	wishlistRoute.POST("/payment", wc.Payment)
	wishlistRoute.GET("/items/:wishlistId", wc.Items)
	wishlistRoute.POST("/item/add", wc.AddItem)
	wishlistRoute.POST("/item/update", wc.UpdateItem)
	wishlistRoute.DELETE("/item/:wishlistId/:itemId", wc.DeleteItem)
	wishlistRoute.DELETE("/:id", wc.Delete)
}
