package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUIDArray is a custom type for PostgreSQL uuid[] arrays
type UUIDArray []uuid.UUID

// Value implements the driver.Valuer interface for UUIDArray
func (a UUIDArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	items := make([]string, len(a))
	for i, id := range a {
		items[i] = id.String()
	}
	// PostgreSQL array format: {item1,item2,item3}
	return "{" + strings.Join(items, ",") + "}", nil
}

// Scan implements the sql.Scanner interface for UUIDArray
func (a *UUIDArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var str string
	switch v := value.(type) {
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return errors.New("incompatible type for UUIDArray")
	}

	str = strings.Trim(str, "{}")
	if str == "" {
		*a = UUIDArray{}
		return nil
	}

	parts := strings.Split(str, ",")
	result := make(UUIDArray, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.Trim(part, `"`))
		if err != nil {
			return fmt.Errorf("invalid uuid in array: %w", err)
		}
		result = append(result, id)
	}
	*a = result
	return nil
}

// DocumentKind distinguishes the two classes of campaign documents
const (
	DocumentKindVisual = "visual"
	DocumentKindPrice  = "price"
)

// Catalog index statuses
const (
	CatalogStatusIndexed = "indexed"
	CatalogStatusFailed  = "failed"
)

// Order statuses
const (
	OrderStatusDraft      = "draft"
	OrderStatusOpen       = "open"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusDispatched = "dispatched"
)

// Campaign represents a wholesale markup campaign
type Campaign struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	StartDate        *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	ActivatedAt      *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	MarkupPercentage int        `db:"markup_percentage" json:"markup_percentage"`
	TargetGroups     UUIDArray  `db:"target_groups" json:"target_groups"`
	VisualDocumentID *uuid.UUID `db:"visual_document_id" json:"visual_document_id,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	// Relationships (loaded separately, not from DB)
	Documents []CampaignDocument `db:"-" json:"documents,omitempty"`
}

// CampaignDocument represents a visual or price-list PDF attached to a campaign
type CampaignDocument struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CampaignID   uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Kind         string    `db:"kind" json:"kind"`
	FileName     string    `db:"file_name" json:"file_name"`
	DeclaredName string    `db:"declared_name" json:"declared_name"`
	ContentType  string    `db:"content_type" json:"content_type"`
	ByteSize     int64     `db:"byte_size" json:"byte_size"`
	Position     int       `db:"position" json:"position"`
	Content      []byte    `db:"content" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Catalog represents a price catalog indexed into the AI assistant
type Catalog struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	OpenAIFileID      string    `db:"openai_file_id" json:"openai_file_id"`
	VectorStoreFileID string    `db:"vector_store_file_id" json:"vector_store_file_id"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ClientMapping links a customer phone number to a confirmed CRM client record
type ClientMapping struct {
	CustomerPhone    string    `db:"customer_phone" json:"customer_phone"`
	BlingClientID    string    `db:"bling_client_id" json:"bling_client_id"`
	BlingClientName  string    `db:"bling_client_name" json:"bling_client_name"`
	BlingClientTaxID string    `db:"bling_client_tax_id" json:"bling_client_tax_id"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order captured for a campaign
type Order struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CampaignID     *uuid.UUID `db:"campaign_id" json:"campaign_id,omitempty"`
	CustomerName   string     `db:"customer_name" json:"customer_name"`
	CustomerPhone  string     `db:"customer_phone" json:"customer_phone"`
	CustomerEmail  *string    `db:"customer_email" json:"customer_email,omitempty"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	Status         string     `db:"status" json:"status"`
	PaymentLinkURL *string    `db:"payment_link_url" json:"payment_link_url,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// TargetGroup is a registry entry for campaign audience segments
type TargetGroup struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}
