package apierrors

import (
	"context"
	"errors"
	"strings"

	catalogProcessor "atacado-server/internal/catalog/processor"
	campaignProcessor "atacado-server/internal/campaigns/processor"
	"atacado-server/internal/clients/bling"
	"atacado-server/internal/clients/pdfengine"
	crmProcessor "atacado-server/internal/crm/processor"
	ordersProcessor "atacado-server/internal/orders/processor"
	"atacado-server/internal/store"
)

// MapError converts domain/processor errors to APIErrors.
// This function centralizes all error mapping logic to ensure consistent
// error responses across the entire API.
//
// If the error is already an APIError, it returns it as-is.
// If the error is a known domain error, it maps it to an appropriate APIError.
// If the error is unknown, it returns a sanitized InternalError (500).
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	// Check if already an APIError
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// Map catalog processor errors
	case errors.Is(err, catalogProcessor.ErrInvalidFileType):
		return BadRequest(CodeInvalidFileType, "Only PDF files are accepted")

	case errors.Is(err, catalogProcessor.ErrMissingName):
		return BadRequest(CodeMissingName, "A catalog name is required")

	case errors.Is(err, catalogProcessor.ErrInvalidMarkup):
		return BadRequest(CodeInvalidMarkup, "Markup percentage must be an integer between 0 and 200")

	case errors.Is(err, catalogProcessor.ErrMissingVisualDocument):
		return BadRequest(CodeMissingVisualDocument, "A visual catalog PDF is required")

	case errors.Is(err, catalogProcessor.ErrUploadInFlight):
		return Conflict(CodeUploadInFlight, "A catalog upload is already in progress")

	case errors.Is(err, catalogProcessor.ErrCatalogNotFound):
		return NotFound(CodeCatalogNotFound, "Catalog not found")

	// Map campaign processor errors
	case errors.Is(err, campaignProcessor.ErrCampaignNotFound):
		return NotFound(CodeCampaignNotFound, "Campaign not found")

	case errors.Is(err, campaignProcessor.ErrEmptyName):
		return BadRequest(CodeEmptyCampaignName, "Campaign name must not be empty")

	case errors.Is(err, campaignProcessor.ErrInvalidMarkup):
		return BadRequest(CodeInvalidMarkup, "Markup percentage must be a non-negative number")

	case errors.Is(err, campaignProcessor.ErrUnknownTargetGroup):
		return BadRequest(CodeUnknownTargetGroup, "Unknown target group")

	case errors.Is(err, campaignProcessor.ErrInvalidDateRange):
		return BadRequest(CodeInvalidDateRange, "Campaign end date must not precede start date")

	case errors.Is(err, campaignProcessor.ErrMissingVisualDocument):
		return BadRequest(CodeMissingVisualDocument, "Campaign has no visual catalog attached")

	// Map CRM resolution errors
	case errors.Is(err, crmProcessor.ErrEmptyPhone):
		return BadRequest(CodeEmptyPhone, "A customer phone is required")

	case errors.Is(err, crmProcessor.ErrNoActiveResolution):
		return Conflict(CodeStateConflict, "No client search is in progress for this phone")

	case errors.Is(err, crmProcessor.ErrNoSelection):
		return Conflict(CodeNoSelection, "No client candidate is selected")

	case errors.Is(err, crmProcessor.ErrCandidateNotFound):
		return NotFound(CodeCandidateNotFound, "Client candidate not found")

	case errors.Is(err, crmProcessor.ErrMappingPersist):
		return ServiceUnavailable(CodeMappingPersistFailed, "Failed to save the client mapping. Please try again.", err)

	// Map fulfillment errors
	case errors.Is(err, ordersProcessor.ErrInvalidOrder):
		return BadRequest(CodeInvalidInput, "Order is missing required fields")

	case errors.Is(err, ordersProcessor.ErrEmptyOrderSet):
		return BadRequest(CodeEmptyOrderSet, "At least one order is required")

	case errors.Is(err, ordersProcessor.ErrOrderNotFound):
		return NotFound(CodeOrderNotFound, "Order not found")

	case errors.Is(err, ordersProcessor.ErrPreviewFailed):
		return ServiceUnavailable(CodePreviewFailed, "Failed to compose the message preview", err)

	case errors.Is(err, ordersProcessor.ErrLinkAlreadyGenerated):
		return Conflict(CodeLinkAlreadyGenerated, "A payment link was already generated for these orders")

	case errors.Is(err, ordersProcessor.ErrLinkPending):
		return Conflict(CodeLinkPending, "Payment link generation is still in progress for these orders")

	case errors.Is(err, ordersProcessor.ErrSendFailed):
		return ServiceUnavailable(CodeSendFailed, "Message dispatch failed for all recipients", err)

	case errors.Is(err, ordersProcessor.ErrTargetCampaignNotFound):
		return NotFound(CodeCampaignNotFound, "Target campaign not found")

	// Map store errors
	case errors.Is(err, store.ErrNotFound):
		return NotFound(CodeNotFound, "Resource not found")

	// Exceeded call budgets surface as timeouts, never as hangs
	case errors.Is(err, context.DeadlineExceeded):
		return GatewayTimeout(CodeCallTimeout, "The remote call exceeded its time budget", err)

	default:
		return mapExternalServiceError(err)
	}
}

// mapExternalServiceError surfaces the upstream-provided message for known
// collaborators and falls back to a sanitized 500 for everything else.
func mapExternalServiceError(err error) *APIError {
	var blingErr *bling.RemoteError
	if errors.As(err, &blingErr) {
		return BadGateway(CodeCRMServiceError, blingErr.Message, err)
	}

	var engineErr *pdfengine.RemoteError
	if errors.As(err, &engineErr) {
		return BadGateway(CodePDFEngineError, engineErr.Message, err)
	}

	errMsg := strings.ToLower(err.Error())

	// Stripe/payment errors
	if strings.Contains(errMsg, "stripe") || strings.Contains(errMsg, "payment") {
		return ServiceUnavailable(
			CodePaymentProviderError,
			"Payment provider is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// WhatsApp dispatch errors (Twilio)
	if strings.Contains(errMsg, "twilio") || strings.Contains(errMsg, "whatsapp") {
		return ServiceUnavailable(
			CodeMessageServiceError,
			"Message service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// Email service errors (Resend)
	if strings.Contains(errMsg, "resend") || strings.Contains(errMsg, "email service") {
		return ServiceUnavailable(
			CodeEmailServiceError,
			"Email service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// AI index errors (OpenAI)
	if strings.Contains(errMsg, "openai") || strings.Contains(errMsg, "ai service") {
		return ServiceUnavailable(
			CodeAIServiceError,
			"AI indexing service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// Default: Unknown error - return sanitized 500
	return InternalError(err)
}
