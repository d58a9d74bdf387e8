package apierrors

// Machine-readable error codes returned in the "code" field of error
// responses. Clients branch on these, never on message text.
const (
	// Generic
	CodeInvalidInput   = "INVALID_INPUT"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeStateConflict  = "STATE_CONFLICT"
	CodeCallTimeout    = "CALL_TIMEOUT"
	CodeUploadInFlight = "UPLOAD_IN_FLIGHT"

	// Auth
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeExpiredToken       = "EXPIRED_TOKEN"

	// Catalog
	CodeInvalidFileType       = "INVALID_FILE_TYPE"
	CodeMissingName           = "MISSING_NAME"
	CodeInvalidMarkup         = "INVALID_MARKUP"
	CodeMissingVisualDocument = "MISSING_VISUAL_DOCUMENT"
	CodeCatalogNotFound       = "CATALOG_NOT_FOUND"

	// Campaigns
	CodeCampaignNotFound   = "CAMPAIGN_NOT_FOUND"
	CodeEmptyCampaignName  = "EMPTY_CAMPAIGN_NAME"
	CodeUnknownTargetGroup = "UNKNOWN_TARGET_GROUP"
	CodeInvalidDateRange   = "INVALID_DATE_RANGE"

	// CRM resolution
	CodeEmptyPhone           = "EMPTY_PHONE"
	CodeNoSelection          = "NO_SELECTION"
	CodeCandidateNotFound    = "CANDIDATE_NOT_FOUND"
	CodeMappingPersistFailed = "MAPPING_PERSIST_FAILED"

	// Orders / fulfillment
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeEmptyOrderSet        = "EMPTY_ORDER_SET"
	CodePreviewFailed        = "PREVIEW_FAILED"
	CodeLinkAlreadyGenerated = "LINK_ALREADY_GENERATED"
	CodeLinkPending          = "LINK_PENDING"
	CodeSendFailed           = "SEND_FAILED"

	// External services
	CodeAIServiceError       = "AI_SERVICE_ERROR"
	CodeCRMServiceError      = "CRM_SERVICE_ERROR"
	CodePDFEngineError       = "PDF_ENGINE_ERROR"
	CodePaymentProviderError = "PAYMENT_PROVIDER_ERROR"
	CodeMessageServiceError  = "MESSAGE_SERVICE_ERROR"
	CodeEmailServiceError    = "EMAIL_SERVICE_ERROR"
)
