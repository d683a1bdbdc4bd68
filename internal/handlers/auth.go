package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

// AuthHandler registers users and issues JWTs.
type AuthHandler struct {
	Users     *store.Users
	JwtSecret string
}

func NewAuthHandler(users *store.Users, jwtSecret string) *AuthHandler {
	return &AuthHandler{Users: users, JwtSecret: jwtSecret}
}

// RegisterRequest defines the JSON struct we expect from the client
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	ProfileName string `json:"profile_name" binding:"required,min=3"`
	ProfileRole string `json:"profile_role" binding:"required"`
}

// Register creates a user with their first profile. The registrant becomes
// the profile's owner with the full 100% revenue share.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	role := models.ProfileRole(req.ProfileRole)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_role must be busker, eventmaker or viewer"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Password hashing error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error, please try again."})
		return
	}

	user, profile, err := h.Users.Register(req.Email, string(passwordHash), req.ProfileName, role, uuid.NewString())
	if err != nil {
		log.Println("Failed to register user:", err)
		// This will fail if the email or profile name is already taken
		c.JSON(http.StatusConflict, gin.H{"error": "Email or profile name may already be in use."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "User created successfully.",
		"user_id":    user.ID,
		"email":      user.Email,
		"profile_id": profile.ID,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) createJWT(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour * 24 * 7).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JwtSecret))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.Users.ByEmail(req.Email)
	if err != nil {
		if err == store.ErrUserNotFound || err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
			return
		}
		log.Println("Database error on login:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	// Compare stored passwordHash with the user entered password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
		return
	}

	tokenString, err := h.createJWT(user)
	if err != nil {
		log.Println("Failed to create JWT:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful.", "token": tokenString})
}
