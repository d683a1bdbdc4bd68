package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"busker-platform/internal/models"
	"busker-platform/internal/service"
	"busker-platform/internal/store"
	ws "busker-platform/internal/websocket"
)

type TipHandler struct {
	Tips       *store.Tips
	Profiles   *store.Profiles
	Engine     *service.TipDistributionEngine
	SnapClient snap.Client
	CoreClient coreapi.Client
	Hub        *ws.Hub
}

func NewTipHandler(tips *store.Tips, profiles *store.Profiles, engine *service.TipDistributionEngine, serverKey string, hub *ws.Hub) *TipHandler {
	var s snap.Client
	s.New(serverKey, midtrans.Sandbox)

	var c coreapi.Client
	c.New(serverKey, midtrans.Sandbox)

	return &TipHandler{
		Tips:       tips,
		Profiles:   profiles,
		Engine:     engine,
		SnapClient: s,
		CoreClient: c,
		Hub:        hub,
	}
}

type CreateTipRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	DonorName   string `json:"donor_name"`
	Message     string `json:"message"`
}

// CreateTip creates a pending tip and returns the payment redirect URL.
// Public endpoint: anyone can tip a profile by name.
func (h *TipHandler) CreateTip(c *gin.Context) {
	profileName := c.Param("profileName")
	var req CreateTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	profile, err := h.Profiles.ByName(profileName)
	if err != nil {
		log.Println("Failed to find profile:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	// Create unique Order ID
	orderID := "TIP-" + strconv.FormatInt(time.Now().Unix(), 10) + "-P" + strconv.FormatInt(profile.ID, 10)

	// Handle empty donor name
	donorName := req.DonorName
	if donorName == "" {
		donorName = "Anonymous"
	}

	tip, err := h.Tips.Create(models.Tip{
		ProfileID:     profile.ID,
		OrderID:       orderID,
		AmountCents:   req.AmountCents,
		DonorName:     donorName,
		Message:       req.Message,
		PaymentStatus: models.TipStatusPending,
	})
	if err != nil {
		log.Println("Failed to create pending tip:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: tip.AmountCents,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: donorName,
		},
	}

	snapResp, err := h.SnapClient.CreateTransaction(snapReq)
	if snapResp == nil {
		log.Println("Failed to create Midtrans transaction (nil response):", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment gateway error."})
		return
	}
	if err != nil {
		log.Printf("Midtrans returned a valid response but also a non-nil error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment link created.",
		"redirect_url": snapResp.RedirectURL,
		"order_id":     orderID,
	})
}

// HandlePaymentNotification is the gateway webhook. Once Midtrans confirms
// settlement, the tip is distributed across the profile roster. Duplicate
// notifications are no-ops: the engine's pending -> completed gate fires
// at most once per tip.
func (h *TipHandler) HandlePaymentNotification(c *gin.Context) {
	var notification coreapi.TransactionStatusResponse
	if err := c.ShouldBindJSON(&notification); err != nil {
		log.Println("Failed to bind Midtrans notification:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification format"})
		return
	}

	// Verify transaction with Midtrans
	apiResp, err := h.CoreClient.CheckTransaction(notification.OrderID)
	if apiResp == nil {
		log.Println("Failed to verify transaction (nil response) with Midtrans Core API:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or API error"})
		return
	}
	if err != nil {
		log.Printf("Midtrans Core API returned a valid response but also a non-nil error: %v", err)
	}

	if apiResp.TransactionStatus == "deny" || apiResp.TransactionStatus == "cancel" || apiResp.TransactionStatus == "expire" {
		tip, tipErr := h.Tips.ByOrderID(apiResp.OrderID)
		if tipErr == nil {
			if err := h.Tips.MarkFailed(tip.ID); err != nil {
				log.Println("Failed to mark tip failed:", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok (payment failed)"})
		return
	}

	if apiResp.TransactionStatus != "settlement" && apiResp.TransactionStatus != "capture" {
		log.Println("Received non-settled transaction status:", apiResp.TransactionStatus)
		c.JSON(http.StatusOK, gin.H{"status": "ok (not settled)"})
		return
	}

	result, distErr := h.Engine.DistributeByOrderID(apiResp.OrderID, apiResp.TransactionID)
	if distErr != nil {
		if errors.Is(distErr, service.ErrAlreadyDistributed) {
			log.Println("Duplicate webhook, tip already distributed:", apiResp.OrderID)
			c.JSON(http.StatusOK, gin.H{"status": "ok (duplicate)"})
			return
		}
		if errors.Is(distErr, store.ErrTipNotFound) {
			log.Println("Failed to find tip by order_id:", apiResp.OrderID)
			c.JSON(http.StatusNotFound, gin.H{"error": "Tip not found"})
			return
		}
		log.Println("Failed to distribute tip:", distErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	log.Printf("SUCCESS: Distributed tip %d across %d members (%d failed)",
		result.TipID, len(result.Credits), result.Failed)

	tip, tipErr := h.Tips.ByOrderID(apiResp.OrderID)
	if tipErr == nil {
		alert := ws.TipAlert{
			TargetProfileID: result.ProfileID,
			DonorName:       tip.DonorName,
			AmountCents:     result.AmountCents,
			Message:         tip.Message,
		}
		for _, cr := range result.Credits {
			alert.Splits = append(alert.Splits, ws.AlertSplit{Alias: cr.Alias, Cents: cr.Cents})
		}
		h.Hub.BroadcastAlert <- alert
	}

	c.JSON(http.StatusOK, gin.H{"status": "complete"})
}
