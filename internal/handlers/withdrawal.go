package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busker-platform/internal/service"
)

type WithdrawalHandler struct {
	Withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{Withdrawals: withdrawals}
}

type RequestWithdrawalRequest struct {
	ProfileID   int64 `json:"profile_id" binding:"required"`
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	withdrawal, err := h.Withdrawals.Request(userID, req.ProfileID, req.AmountCents)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

func (h *WithdrawalHandler) ListForProfile(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("profileId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile id"})
		return
	}

	list, err := h.Withdrawals.ListForProfile(profileID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Approve debits the wallet and fires the payout. A payout failure still
// returns 200: the funds are committed, the failure rides along as metadata.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	withdrawalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal id"})
		return
	}

	result, err := h.Withdrawals.Approve(withdrawalID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *WithdrawalHandler) Reject(c *gin.Context) {
	withdrawalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal id"})
		return
	}

	if err := h.Withdrawals.Reject(withdrawalID); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal rejected."})
}

func (h *WithdrawalHandler) MarkCompleted(c *gin.Context) {
	withdrawalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal id"})
		return
	}

	if err := h.Withdrawals.MarkCompleted(withdrawalID); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal completed."})
}
