package handler

import (
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/delivery/http/middleware"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		FullName string `json:"full_name" binding:"required,max=255"`
		Email    string `json:"email" binding:"omitempty,email"`
		Phone    string `json:"phone" binding:"required,phone"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "registered", result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input.Phone, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "logged in", result)
}

func (h *AuthHandler) Google(c *gin.Context) {
	var input struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.LoginWithGoogle(c.Request.Context(), input.IDToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "logged in", result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}
