package handler

import (
	"atacado-server/internal/apierrors"
	"atacado-server/internal/catalog/processor"
	"atacado-server/internal/clients/pdfengine"
	"atacado-server/internal/observability"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalogProcessor processor.CatalogProcessor
	logger           *observability.Logger
}

func New(catalogProcessor processor.CatalogProcessor, logger *observability.Logger) Handler {
	return Handler{catalogProcessor: catalogProcessor, logger: logger}
}

// HandleUploadPDF receives a catalog PDF and indexes it into the assistant
func (h *Handler) HandleUploadPDF(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "A PDF file is required"))
		return
	}

	content, contentType, err := readUpload(fileHeader)
	if err != nil {
		h.logger.Error(ctx, "failed to read uploaded file", err)
		apierrors.RespondWithError(c, err)
		return
	}

	catalog, err := h.catalogProcessor.SubmitIndex(ctx, processor.SubmitIndexParams{
		Name:        c.PostForm("name"),
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, catalog)
}

// HandleGenerateMarkupUpload renders a markup catalog from uploaded documents
func (h *Handler) HandleGenerateMarkupUpload(c *gin.Context) {
	ctx := c.Request.Context()

	markup, err := strconv.Atoi(c.PostForm("markup"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidMarkup, "Markup percentage must be an integer"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "Multipart form is required"))
		return
	}

	var visual *pdfengine.Document
	if visuals := form.File["visual"]; len(visuals) > 0 {
		doc, err := readDocument(visuals[0])
		if err != nil {
			h.logger.Error(ctx, "failed to read visual document", err)
			apierrors.RespondWithError(c, err)
			return
		}
		visual = &doc
	}

	var priceLists []pdfengine.Document
	for _, priceHeader := range form.File["price_lists"] {
		doc, err := readDocument(priceHeader)
		if err != nil {
			h.logger.Error(ctx, "failed to read price list document", err)
			apierrors.RespondWithError(c, err)
			return
		}
		priceLists = append(priceLists, doc)
	}

	result, err := h.catalogProcessor.SubmitMarkup(ctx, processor.SubmitMarkupParams{
		Visual:        visual,
		PriceLists:    priceLists,
		MarkupPercent: markup,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

// HandleListCatalogs returns all indexed catalogs
func (h *Handler) HandleListCatalogs(c *gin.Context) {
	catalogs, err := h.catalogProcessor.ListCatalogs(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": catalogs})
}

// HandleStatus reports index readiness and the pipeline snapshot
func (h *Handler) HandleStatus(c *gin.Context) {
	status, err := h.catalogProcessor.Status(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// HandleReset deletes every indexed catalog
func (h *Handler) HandleReset(c *gin.Context) {
	if err := h.catalogProcessor.Reset(c.Request.Context()); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "catalog index reset"})
}

// HandleDismiss clears a terminal pipeline state
func (h *Handler) HandleDismiss(c *gin.Context) {
	h.catalogProcessor.Dismiss()
	c.JSON(http.StatusOK, gin.H{"message": "dismissed"})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return content, fileHeader.Header.Get("Content-Type"), nil
}

func readDocument(fileHeader *multipart.FileHeader) (pdfengine.Document, error) {
	content, _, err := readUpload(fileHeader)
	if err != nil {
		return pdfengine.Document{}, err
	}
	return pdfengine.Document{FileName: fileHeader.Filename, Content: content}, nil
}
