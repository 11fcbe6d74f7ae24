package handler

import (
	"errors"
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// envelope is the body of every API response.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Status: status, Message: message, Data: data})
}

func respondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", data)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status code. Internal errors are attached to the
// gin context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		respond(c, statusFor(appErr.Kind), appErr.Error(), nil)
		return
	}
	_ = c.Error(err)
	respond(c, http.StatusInternalServerError, "internal server error", nil)
}

// badRequest reports a binding failure, naming the offending fields when the
// validator produced them.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		respond(c, http.StatusBadRequest, "validation failed", fields)
		return
	}
	respond(c, http.StatusBadRequest, err.Error(), nil)
}
