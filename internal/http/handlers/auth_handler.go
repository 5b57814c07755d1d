package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// AuthHandler exposes registration and login per role.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func roleParam(c *gin.Context) (models.Role, error) {
	role := models.Role(c.Param("role"))
	if !role.Valid() {
		return "", apperror.Validation("unknown role", map[string]interface{}{"role": c.Param("role")})
	}
	return role, nil
}

// Signup POST /auth/:role/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var input service.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	account, token, err := h.auth.Signup(c.Request.Context(), role, input)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account, "access_token": token})
}

// Login POST /auth/:role/login
func (h *AuthHandler) Login(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	account, token, err := h.auth.Login(c.Request.Context(), role, input)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "access_token": token})
}
