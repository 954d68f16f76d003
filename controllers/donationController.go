package controllers

import (
	"net/http"

	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ContributeRequest struct {
	Token      string  `json:"token" validate:"required"`
	WishlistID string  `json:"wishlistId" validate:"required"`
	ItemID     string  `json:"itemId"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required"`
	ImageData  string  `json:"imageData" validate:"required"`
}

type DonationController struct {
	DonationService services.DonationService
	limiter         *ratelimit.Limiter
	log             *logrus.Logger
}

func DonationConstructor(donationService services.DonationService, limiter *ratelimit.Limiter, log *logrus.Logger) DonationController {
	return DonationController{
		DonationService: donationService,
		limiter:         limiter,
		log:             log,
	}
}

func (dc *DonationController) Profile(c *gin.Context) {
	profile, err := dc.DonationService.PublicProfile(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved", profile)
}

func (dc *DonationController) Contribute(c *gin.Context) {
	var req ContributeRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}
	if !middleware.Throttle(c, dc.limiter, middleware.ScopeContribute, ratelimit.ContributeRule, req.Token) {
		return
	}

	message, err := dc.DonationService.Contribute(c.Request.Context(), services.Contribution{
		Token:      req.Token,
		WishlistID: req.WishlistID,
		ItemID:     req.ItemID,
		Amount:     req.Amount,
		Name:       req.Name,
		Email:      req.Email,
		ImageData:  req.ImageData,
	})
	if err != nil {
		fail(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, message, gin.H{"message": message})
}

func (dc *DonationController) Payments(c *gin.Context) {
	payments, err := dc.DonationService.PublicPayments(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, "Payments retrieved", payments)
}

func (dc *DonationController) DonationRoutes(rg *gin.RouterGroup) {
	publicRoute := rg.Group("/public")
	publicRoute.GET("/profile/:token", dc.Profile)
	publicRoute.GET("/payments/:token", dc.Payments)
	publicRoute.POST("/contribute", dc.Contribute)
}
