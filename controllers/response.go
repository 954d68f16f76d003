package controllers

import (
	"errors"
	"net/http"

	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var Validate = validator.New()

type apiError struct {
	err    error
	status int
	code   string
}

var errorTable = []apiError{
	{services.ErrMissingFields, http.StatusBadRequest, "missing_fields"},
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{services.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{services.ErrInsufficientBalance, http.StatusBadRequest, "insufficient_balance"},
	{services.ErrPayoutDetailsMissing, http.StatusBadRequest, "payout_details_missing"},
	{services.ErrNotSuccessful, http.StatusBadRequest, "not_successful"},
	{services.ErrUserExists, http.StatusBadRequest, "user_exists"},
	{services.ErrNicknameTaken, http.StatusBadRequest, "nickname_taken"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{services.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{services.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	if data == nil {
		data = ""
	}
	c.JSON(status, gin.H{
		"error":         false,
		"response code": status,
		"message":       message,
		"data":          data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":         true,
		"response code": status,
		"code":          code,
		"message":       message,
		"data":          "",
	})
}

// fail maps a service error onto the envelope. Unknown errors are logged and
// hidden behind internal_error.
func fail(c *gin.Context, log *logrus.Logger, err error) {
	for _, known := range errorTable {
		if errors.Is(err, known.err) {
			respondError(c, known.status, known.code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong, please try again")
}

// invalidBody reports a body that did not decode or failed struct validation.
func invalidBody(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			if fieldErr.Tag() == "required" {
				respondError(c, http.StatusBadRequest, "missing_fields", fieldErr.Field()+" is required")
				return
			}
		}
		respondError(c, http.StatusBadRequest, "invalid_input", validationErrs.Error())
		return
	}
	respondError(c, http.StatusBadRequest, "invalid_input", "Request body is not valid JSON")
}

// bind decodes into req with decode and validates it; on failure the response
// has already been written.
func bind(c *gin.Context, req interface{}, decode func(interface{}) error) bool {
	if err := decode(req); err != nil {
		invalidBody(c, err)
		return false
	}
	if err := Validate.Struct(req); err != nil {
		invalidBody(c, err)
		return false
	}
	return true
}
