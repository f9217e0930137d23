package controllers

import (
	"errors"
	"net/http"
	"time"

	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthController struct {
	AdminSvc *services.AdminService
	secret   string
	ttl      time.Duration
}

func NewAuthController(svc *services.AdminService, secret string, ttl time.Duration) *AuthController {
	return &AuthController{AdminSvc: svc, secret: secret, ttl: ttl}
}

// Login exchanges username and password for a bearer token that identifies
// the actor on write endpoints.
func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	admin, err := ctrl.AdminSvc.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "error.invalidCredentials", "invalid credentials", nil)
			return
		}
		respondError(c, err)
		return
	}

	token, err := utils.NewAccessToken(ctrl.secret, admin.ID, admin.Role, ctrl.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":     token.Token,
		"expiresAt": token.Exp,
		"admin":     admin,
	})
}

// Me returns the admin behind the bearer token.
func (ctrl *AuthController) Me(c *gin.Context) {
	admin, err := ctrl.AdminSvc.Get(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, admin)
}
