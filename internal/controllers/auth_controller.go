package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus_cruiser/internal/middleware"
	"campus_cruiser/internal/services"
)

type AuthController struct {
	directory *services.Directory
	auth      *middleware.Auth
}

func NewAuthController(directory *services.Directory, auth *middleware.Auth) *AuthController {
	return &AuthController{directory: directory, auth: auth}
}

// LoginUser accepts a student roll number or an admin username.
func (ac *AuthController) LoginUser(c *gin.Context) {
	var body struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.directory.Authenticate(c.Request.Context(), body.Identifier, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := ac.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
