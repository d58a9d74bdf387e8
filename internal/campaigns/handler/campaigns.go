package handler

import (
	"atacado-server/internal/apierrors"
	"atacado-server/internal/campaigns/processor"
	"atacado-server/internal/clients/pdfengine"
	"atacado-server/internal/observability"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	campaignProcessor processor.CampaignProcessor
	logger            *observability.Logger
}

func New(campaignProcessor processor.CampaignProcessor, logger *observability.Logger) Handler {
	return Handler{campaignProcessor: campaignProcessor, logger: logger}
}

type CreateCampaignRequest struct {
	Name             string      `json:"name" binding:"required"`
	StartDate        *time.Time  `json:"start_date"`
	EndDate          *time.Time  `json:"end_date"`
	MarkupPercentage int         `json:"markup_percentage" binding:"gte=0"`
	TargetGroups     []uuid.UUID `json:"target_groups"`
}

type UpdateCampaignRequest struct {
	Name             *string     `json:"name"`
	StartDate        *time.Time  `json:"start_date"`
	EndDate          *time.Time  `json:"end_date"`
	MarkupPercentage *int        `json:"markup_percentage"`
	TargetGroups     []uuid.UUID `json:"target_groups"`
}

type ActivationRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) HandleCreateCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	campaign, err := h.campaignProcessor.CreateCampaign(ctx, processor.CreateCampaignParams{
		Name:             req.Name,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MarkupPercentage: req.MarkupPercentage,
		TargetGroups:     req.TargetGroups,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) HandleListCampaigns(c *gin.Context) {
	campaigns, err := h.campaignProcessor.ListCampaigns(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (h *Handler) HandleGetCampaign(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	campaign, err := h.campaignProcessor.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) HandleGetPrimaryCampaign(c *gin.Context) {
	campaign, err := h.campaignProcessor.GetPrimaryCampaign(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) HandleUpdateCampaign(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	campaign, err := h.campaignProcessor.UpdateCampaign(c.Request.Context(), campaignID, processor.UpdateCampaignParams{
		Name:             req.Name,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MarkupPercentage: req.MarkupPercentage,
		TargetGroups:     req.TargetGroups,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) HandleSetActivation(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	var req ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	campaign, err := h.campaignProcessor.SetActivation(c.Request.Context(), campaignID, *req.Active)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) HandleDeleteCampaign(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	if err := h.campaignProcessor.DeleteCampaign(c.Request.Context(), campaignID); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

// HandleAttachDocuments receives the campaign's visual and price list PDFs
func (h *Handler) HandleAttachDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "Multipart form is required"))
		return
	}

	var params processor.AttachDocumentsParams
	if visuals := form.File["visual"]; len(visuals) > 0 {
		doc, err := readDocument(visuals[0])
		if err != nil {
			h.logger.Error(ctx, "failed to read visual document", err)
			apierrors.RespondWithError(c, err)
			return
		}
		params.Visual = &doc
	}
	for _, priceHeader := range form.File["price_lists"] {
		doc, err := readDocument(priceHeader)
		if err != nil {
			h.logger.Error(ctx, "failed to read price list document", err)
			apierrors.RespondWithError(c, err)
			return
		}
		params.PriceLists = append(params.PriceLists, doc)
	}

	campaign, err := h.campaignProcessor.AttachDocuments(ctx, campaignID, params)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// HandleGenerate renders and streams the campaign's markup catalog
func (h *Handler) HandleGenerate(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	result, err := h.campaignProcessor.Generate(c.Request.Context(), campaignID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type CreateTargetGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) HandleCreateTargetGroup(c *gin.Context) {
	var req CreateTargetGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	group, err := h.campaignProcessor.CreateTargetGroup(c.Request.Context(), req.Name)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *Handler) HandleListTargetGroups(c *gin.Context) {
	groups, err := h.campaignProcessor.ListTargetGroups(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"target_groups": groups})
}

func (h *Handler) campaignID(c *gin.Context) (uuid.UUID, bool) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "Invalid campaign id"))
		return uuid.Nil, false
	}
	return campaignID, true
}

func readDocument(fileHeader *multipart.FileHeader) (pdfengine.Document, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return pdfengine.Document{}, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return pdfengine.Document{}, err
	}
	return pdfengine.Document{FileName: fileHeader.Filename, Content: content}, nil
}
