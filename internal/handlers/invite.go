package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busker-platform/internal/service"
)

type InviteHandler struct {
	Invites *service.InviteService
}

func NewInviteHandler(invites *service.InviteService) *InviteHandler {
	return &InviteHandler{Invites: invites}
}

type SendInviteRequest struct {
	ProfileID    int64   `json:"profile_id" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	RevenueShare float64 `json:"revenue_share"`
	Alias        string  `json:"alias"`
	Specialty    string  `json:"specialty"`
}

func (h *InviteHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	invite, err := h.Invites.Create(userID, service.CreateInviteInput{
		ProfileID: req.ProfileID,
		Email:     req.Email,
		Share:     req.RevenueShare,
		Alias:     req.Alias,
		Specialty: req.Specialty,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

func (h *InviteHandler) ListForProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profileID, err := strconv.ParseInt(c.Param("profileId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile id"})
		return
	}

	invites, err := h.Invites.ListForProfile(userID, profileID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (h *InviteHandler) ListMine(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	invites, err := h.Invites.ListForEmail(email)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

// LookupToken is public: the invite landing page shows the profile name
// before the invitee logs in.
func (h *InviteHandler) LookupToken(c *gin.Context) {
	details, err := h.Invites.LookupToken(c.Param("token"))
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

type InviteTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *InviteHandler) Accept(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req InviteTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	member, err := h.Invites.Accept(userID, email, req.Token)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Invite accepted.",
		"profile_id": member.ProfileID,
		"member":     member,
	})
}

func (h *InviteHandler) Reject(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req InviteTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.Invites.Reject(email, req.Token); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite rejected."})
}

func (h *InviteHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	inviteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite id"})
		return
	}

	if err := h.Invites.Cancel(userID, inviteID); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite cancelled."})
}
