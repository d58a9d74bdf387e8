package handler

import (
	"atacado-server/internal/apierrors"
	"atacado-server/internal/crm/processor"
	"atacado-server/internal/observability"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	resolver *processor.ClientResolver
	logger   *observability.Logger
}

func New(resolver *processor.ClientResolver, logger *observability.Logger) Handler {
	return Handler{resolver: resolver, logger: logger}
}

// HandleSearchClients starts or refines a client resolution.
// ?phone= starts a session, ?phone=&term= searches manually within it.
func (h *Handler) HandleSearchClients(c *gin.Context) {
	ctx := c.Request.Context()
	phone := c.Query("phone")
	term := c.Query("term")

	var (
		resolution processor.Resolution
		err        error
	)
	if term != "" {
		resolution, err = h.resolver.SearchByTerm(ctx, phone, term)
	} else {
		resolution, err = h.resolver.SearchByPhone(ctx, phone)
	}
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

type SelectCandidateRequest struct {
	Phone       string `json:"phone" binding:"required"`
	CandidateID string `json:"candidate_id" binding:"required"`
}

func (h *Handler) HandleSelectCandidate(c *gin.Context) {
	var req SelectCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	resolution, err := h.resolver.SelectCandidate(c.Request.Context(), req.Phone, req.CandidateID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}

type ConfirmMappingRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *Handler) HandleConfirmMapping(c *gin.Context) {
	var req ConfirmMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	mapping, err := h.resolver.Confirm(c.Request.Context(), req.Phone)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}

type CreateClientRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name" binding:"required"`
	TaxID string `json:"tax_id"`
	Email string `json:"email" binding:"omitempty,email"`
}

func (h *Handler) HandleCreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	contact, err := h.resolver.CreateNew(c.Request.Context(), req.Phone, req.Name, req.TaxID, req.Email)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// HandleDeleteMapping unlinks a phone from its Bling client
func (h *Handler) HandleDeleteMapping(c *gin.Context) {
	if err := h.resolver.DeleteMapping(c.Request.Context(), c.Query("phone")); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleGetMapping returns the confirmed mapping for a phone
func (h *Handler) HandleGetMapping(c *gin.Context) {
	mapping, err := h.resolver.GetMapping(c.Request.Context(), c.Query("phone"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}
