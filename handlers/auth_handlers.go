// api/handlers/auth_handlers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"learnscope/api/models"
	"learnscope/api/store"
	"learnscope/api/utils"
)

type AuthHandlers struct {
	Users store.UserStore
	Log   *logrus.Logger
}

func NewAuthHandlers(users store.UserStore, log *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{Users: users, Log: log}
}

// Register creates a user record and issues a token.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username and password are required"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.WithError(err).Error("failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process password"})
		return
	}

	user, err := h.Users.CreateUser(c.Request.Context(), req.Username, req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is already taken"})
			return
		}
		h.Log.WithError(err).WithField("username", req.Username).Error("failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to register user"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		h.Log.WithError(err).Error("failed to generate JWT")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate authentication token"})
		return
	}

	h.Log.WithFields(logrus.Fields{"id": user.ID, "username": user.Username}).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "token": token})
}

// Login validates credentials and issues a token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username and password are required"})
		return
	}

	user, err := h.Users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			h.Log.WithError(err).Error("failed to look up user")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		h.Log.WithError(err).Error("failed to generate JWT")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate authentication token"})
		return
	}

	c.SetCookie("jwt_token", token, 24*60*60, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "token": token})
}

// Profile echoes the authenticated user's claims.
func (h *AuthHandlers) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"user_id":  c.MustGet("user_id"),
		"username": c.MustGet("username"),
	})
}
