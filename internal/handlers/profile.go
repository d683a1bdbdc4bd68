package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

// ProfileHandler serves the caller's profiles, wallet balance, and the
// bank-account setting used by withdrawals.
type ProfileHandler struct {
	Profiles *store.Profiles
	Rosters  *store.Rosters
	Wallets  *store.Wallets
}

func NewProfileHandler(profiles *store.Profiles, rosters *store.Rosters, wallets *store.Wallets) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Rosters: rosters, Wallets: wallets}
}

func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profiles, err := h.Profiles.ForUser(userID)
	if err != nil {
		log.Println("Failed to list profiles:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch profiles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h *ProfileHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	saldo, err := h.Wallets.Balance(userID)
	if err != nil {
		log.Println("Failed to read wallet balance:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saldo_cents": saldo})
}

type SetBankAccountRequest struct {
	BankAccountToken string `json:"bank_account_token" binding:"required"`
}

// SetBankAccount stores the payout destination token. Owner only.
func (h *ProfileHandler) SetBankAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profileID, err := strconv.ParseInt(c.Param("profileId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile id"})
		return
	}

	var req SetBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	member, err := h.Rosters.MemberOf(profileID, userID)
	if err != nil {
		log.Println("Failed to check membership:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if member == nil || member.Role != models.MemberRoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the profile owner can change the bank account"})
		return
	}

	if err := h.Profiles.SetBankAccount(profileID, req.BankAccountToken); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bank account updated."})
}
