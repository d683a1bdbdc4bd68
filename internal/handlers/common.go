package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"busker-platform/internal/service"
	"busker-platform/internal/store"
)

// currentUser pulls the authenticated user id out of the gin context.
func currentUser(c *gin.Context) (int64, bool) {
	v, exists := c.Get("userID")
	if !exists {
		log.Println("UserID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error: UserID not found"})
		return 0, false
	}
	userID, ok := v.(int64)
	if !ok {
		log.Println("UserID in context is not an int64")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error: UserID invalid format"})
		return 0, false
	}
	return userID, true
}

// currentEmail pulls the authenticated email out of the gin context.
func currentEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get("email")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authenticated email required"})
		return "", false
	}
	email, ok := v.(string)
	if !ok || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authenticated email required"})
		return "", false
	}
	return email, true
}

// serviceError translates the service/store error taxonomy into an HTTP
// response. Unknown errors are logged and come back as a plain 500.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to do that"})
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
	case errors.Is(err, service.ErrBankAccountRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Profile has no bank account on file"})
	case errors.Is(err, store.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, store.ErrAlreadyMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member of this profile"})
	case errors.Is(err, store.ErrInviteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found or expired"})
	case errors.Is(err, store.ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
	case errors.Is(err, store.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	case errors.Is(err, store.ErrTipNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tip not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
	default:
		log.Println("Unhandled service error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
	}
}
