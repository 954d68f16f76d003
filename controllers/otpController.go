package controllers

import (
	"net/http"

	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const OtpCookie = "wishy_otp_session"

type OtpSendRequest struct {
	Email string `json:"email" validate:"required"`
}

type OtpVerifyRequest struct {
	Email string `json:"email" validate:"required"`
	Otp   string `json:"otp" validate:"required"`
}

type OtpController struct {
	OtpService   services.OtpService
	cookieDomain string
	log          *logrus.Logger
}

func OtpConstructor(otpService services.OtpService, cookieDomain string, log *logrus.Logger) OtpController {
	return OtpController{
		OtpService:   otpService,
		cookieDomain: cookieDomain,
		log:          log,
	}
}

func (oc *OtpController) Send(ctx *gin.Context) {
	var req OtpSendRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	session, sent, err := oc.OtpService.Send(ctx.Request.Context(), req.Email)
	if err != nil {
		fail(ctx, oc.log, err)
		return
	}
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(OtpCookie, session.ID, int(services.OtpTTL.Seconds()), "/", oc.cookieDomain, true, true)
	respond(ctx, http.StatusOK, "Verification code issued", gin.H{"email_sent": sent})
}

func (oc *OtpController) Verify(ctx *gin.Context) {
	var req OtpVerifyRequest
	if !bind(ctx, &req, ctx.ShouldBindJSON) {
		return
	}

	sessionID, _ := ctx.Cookie(OtpCookie)
	if err := oc.OtpService.Verify(ctx.Request.Context(), sessionID, req.Email, req.Otp); err != nil {
		fail(ctx, oc.log, err)
		return
	}
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(OtpCookie, "", -1, "/", oc.cookieDomain, true, true)
	respond(ctx, http.StatusOK, "Email verified", gin.H{"verified": true})
}

func (oc *OtpController) OtpRoutes(rg *gin.RouterGroup) {
	otpRoute := rg.Group("/otp")
	otpRoute.POST("/send", oc.Send)
	otpRoute.POST("/verify", oc.Verify)
}
