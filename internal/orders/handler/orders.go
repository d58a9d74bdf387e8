package handler

import (
	"atacado-server/internal/apierrors"
	"atacado-server/internal/observability"
	"atacado-server/internal/orders/processor"
	"atacado-server/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	composer *processor.FulfillmentComposer
	logger   *observability.Logger
}

func New(composer *processor.FulfillmentComposer, logger *observability.Logger) Handler {
	return Handler{composer: composer, logger: logger}
}

type CreateOrderRequest struct {
	CampaignID    *uuid.UUID `json:"campaign_id"`
	CustomerName  string     `json:"customer_name" binding:"required"`
	CustomerPhone string     `json:"customer_phone" binding:"required"`
	CustomerEmail *string    `json:"customer_email"`
	TotalCents    int64      `json:"total_cents" binding:"required"`
}

// HandleCreateOrder registers an incoming order as a draft
func (h *Handler) HandleCreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	order, err := h.composer.CreateOrder(c.Request.Context(), store.CreateOrderParams{
		CampaignID:    req.CampaignID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		TotalCents:    req.TotalCents,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// HandleGetOrder returns a single order
func (h *Handler) HandleGetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "Invalid order id"))
		return
	}

	order, err := h.composer.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// HandleListOrders returns the orders of a campaign
func (h *Handler) HandleListOrders(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Query("campaign_id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "Invalid campaign id"))
		return
	}

	orders, err := h.composer.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type SendConfirmationRequest struct {
	OrderIDs      []uuid.UUID `json:"order_ids" binding:"required"`
	Preview       bool        `json:"preview"`
	CustomMessage string      `json:"custom_message"`
	Body          string      `json:"body"`
}

// HandleSendConfirmation previews or dispatches a confirmation for an
// order set. With preview=true only the composed draft is returned.
func (h *Handler) HandleSendConfirmation(c *gin.Context) {
	var req SendConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.Preview {
		draft, err := h.composer.Preview(ctx, req.OrderIDs, req.CustomMessage)
		if err != nil {
			apierrors.RespondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"draft": draft})
		return
	}

	result, err := h.composer.Send(ctx, req.OrderIDs, req.Body)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type GenerateLinkRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required"`
}

// HandleGenerateLinkSync syncs the order set to Bling and creates its
// payment link
func (h *Handler) HandleGenerateLinkSync(c *gin.Context) {
	var req GenerateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	linkURL, err := h.composer.GeneratePaymentLink(c.Request.Context(), req.OrderIDs)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_link_url": linkURL})
}

type MoveOrdersRequest struct {
	OrderIDs         []uuid.UUID `json:"order_ids" binding:"required"`
	TargetCampaignID uuid.UUID   `json:"target_campaign_id" binding:"required"`
}

// HandleMoveOrders reassigns an order set to another campaign
func (h *Handler) HandleMoveOrders(c *gin.Context) {
	var req MoveOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	moved, err := h.composer.Move(c.Request.Context(), req.OrderIDs, req.TargetCampaignID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}
