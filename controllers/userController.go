package controllers

import (
	"net/http"
	"time"

	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/models"
	"github.com/JayJosh846/wishy/services"
	token "github.com/JayJosh846/wishy/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Fullname    string `json:"fullname" validate:"required"`
	Nickname    string `json:"nickname"`
	PhoneNumber string `json:"phoneNumber"`
	CountryCode string `json:"countryCode"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type NicknameRequest struct {
	Nickname string `json:"nickname" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type ProfileUpdateRequest struct {
	AccountNumber   *string `json:"accountNumber"`
	AccountName     *string `json:"accountName"`
	BankName        *string `json:"bankName"`
	ThankYouMessage *string `json:"thankYouMessage"`
}

// ProfileView is the signed-in user's own projection of the account.
type ProfileView struct {
	Email           string            `json:"email"`
	Fullname        string            `json:"fullname"`
	Nickname        string            `json:"nickname,omitempty"`
	PhoneNumber     string            `json:"phoneNumber,omitempty"`
	CountryCode     string            `json:"countryCode,omitempty"`
	AccountNumber   string            `json:"accountNumber,omitempty"`
	AccountName     string            `json:"accountName,omitempty"`
	BankName        string            `json:"bankName,omitempty"`
	ThankYouMessage string            `json:"thankYouMessage,omitempty"`
	ShareToken      string            `json:"shareToken,omitempty"`
	DefaultPlan     models.Plan       `json:"defaultPlan,omitempty"`
	WalletBalance   float64           `json:"walletBalance"`
	Wishlists       []models.Wishlist `json:"wishlists"`
	TotalBudget     float64           `json:"totalBudget"`
}

func profileView(account *models.Account) ProfileView {
	return ProfileView{
		Email:           account.Email,
		Fullname:        account.Fullname,
		Nickname:        account.Nickname,
		PhoneNumber:     account.PhoneNumber,
		CountryCode:     account.CountryCode,
		AccountNumber:   account.AccountNumber,
		AccountName:     account.AccountName,
		BankName:        account.BankName,
		ThankYouMessage: account.ThankYouMessage,
		ShareToken:      account.ShareToken,
		DefaultPlan:     account.DefaultPlan,
		WalletBalance:   account.WalletBalance,
		Wishlists:       account.ActiveWishlists(),
		TotalBudget:     account.TotalBudget(),
	}
}

type UserController struct {
	UserService  services.UserService
	tokens       *token.TokenManager
	cookieDomain string
	appURL       string
	log          *logrus.Logger
}

func Constructor(userService services.UserService, tokens *token.TokenManager, cookieDomain, appURL string, log *logrus.Logger) UserController {
	return UserController{
		UserService:  userService,
		tokens:       tokens,
		cookieDomain: cookieDomain,
		appURL:       appURL,
		log:          log,
	}
}

func (uc *UserController) Signup(ctx *gin.Context) {
	var req SignupRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	account, err := uc.UserService.Signup(ctx.Request.Context(), services.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		Fullname:    req.Fullname,
		Nickname:    req.Nickname,
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	if err := uc.setSession(ctx, account); err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusCreated, "Account created successfully", gin.H{"email": account.Email})
}

func (uc *UserController) Signin(ctx *gin.Context) {
	var req SigninRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	account, err := uc.UserService.Signin(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	if err := uc.setSession(ctx, account); err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Signed in successfully", gin.H{"email": account.Email})
}

func (uc *UserController) Signout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", uc.cookieDomain, true, true)
	respond(ctx, http.StatusOK, "Signed out", nil)
}

func (uc *UserController) Me(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	account, err := uc.UserService.GetAccount(ctx.Request.Context(), user.Id)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Session is valid", gin.H{"email": account.Email})
}

func (uc *UserController) CheckNickname(ctx *gin.Context) {
	var req NicknameRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}
	check, err := uc.UserService.CheckNickname(ctx.Request.Context(), req.Nickname)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Nickname checked", check)
}

func (uc *UserController) CheckEmail(ctx *gin.Context) {
	var req EmailRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}
	exists, err := uc.UserService.EmailExists(ctx.Request.Context(), req.Email)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Email checked", gin.H{"exists": exists})
}

func (uc *UserController) Profile(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	account, err := uc.UserService.GetAccount(ctx.Request.Context(), user.Id)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Profile retrieved", profileView(account))
}

func (uc *UserController) UpdateProfile(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var req ProfileUpdateRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	account, err := uc.UserService.UpdateProfile(ctx.Request.Context(), user.Id, services.ProfileUpdate{
		AccountNumber:   req.AccountNumber,
		AccountName:     req.AccountName,
		BankName:        req.BankName,
		ThankYouMessage: req.ThankYouMessage,
	})
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Profile updated", profileView(account))
}

func (uc *UserController) Share(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	shareToken, err := uc.UserService.EnsureShareToken(ctx.Request.Context(), user.Id)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Share link ready", gin.H{
		"shareUrl": services.ShareURL(uc.appURL, ctx.GetHeader("Origin"), shareToken),
		"token":    shareToken,
	})
}

func (uc *UserController) Payments(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	payments, err := uc.UserService.Payments(ctx.Request.Context(), user.Id)
	if err != nil {
		fail(ctx, uc.log, err)
		return
	}
	respond(ctx, http.StatusOK, "Payments retrieved", payments)
}

func (uc *UserController) setSession(ctx *gin.Context, account *models.Account) error {
	signed, err := uc.tokens.TokenGenerator(account.ID.Hex(), account.Email)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(middleware.SessionCookie, signed, int(uc.tokens.TTL()/time.Second), "/", uc.cookieDomain, true, true)
	return nil
}

func (uc *UserController) UserRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	authRoute := rg.Group("/auth")
	authRoute.POST("/signup", uc.Signup)
	authRoute.POST("/signin", uc.Signin)
	authRoute.POST("/signout", uc.Signout)
	authRoute.GET("/me", auth, uc.Me)
	authRoute.POST("/check-nickname", uc.CheckNickname)
	authRoute.POST("/check-email", uc.CheckEmail)

	profileRoute := rg.Group("/profile", auth)
	profileRoute.GET("/me", uc.Profile)
	profileRoute.POST("/update", uc.UpdateProfile)
	profileRoute.POST("/share", uc.Share)
	profileRoute.GET("/payments", uc.Payments)
}
