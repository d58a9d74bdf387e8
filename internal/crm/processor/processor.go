package processor

import (
	"atacado-server/internal/clients/bling"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"
)

var (
	ErrEmptyPhone         = errors.New("customer phone is required")
	ErrNoActiveResolution = errors.New("no active client resolution for phone")
	ErrNoSelection        = errors.New("no candidate selected")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrMappingPersist     = errors.New("failed to persist client mapping")
)

// ResolutionState tracks where a client resolution session stands
type ResolutionState string

const (
	StateSearching  ResolutionState = "searching"
	StateMatched    ResolutionState = "matched"
	StateUnmatched  ResolutionState = "unmatched"
	StateConfirmed  ResolutionState = "confirmed"
	StateCreatedNew ResolutionState = "created-new"
)

// Resolution is a point-in-time view of a client resolution session
type Resolution struct {
	Phone      string          `json:"phone"`
	State      ResolutionState `json:"state"`
	Candidates []bling.Contact `json:"candidates"`
	SelectedID string          `json:"selected_id,omitempty"`
}

// MappingStore defines the database operations required by ClientResolver
type MappingStore interface {
	UpsertClientMapping(ctx context.Context, params store.UpsertClientMappingParams) (store.ClientMapping, error)
	GetClientMappingByPhone(ctx context.Context, phone string) (store.ClientMapping, error)
	DeleteClientMapping(ctx context.Context, phone string) error
}

// CRMClient defines the Bling operations required by ClientResolver
type CRMClient interface {
	SearchContactsByPhone(ctx context.Context, phone string) ([]bling.Contact, error)
	SearchContactsByTerm(ctx context.Context, term string) ([]bling.Contact, error)
	CreateContact(ctx context.Context, params bling.CreateContactParams) (bling.Contact, error)
}

type session struct {
	state      ResolutionState
	candidates []bling.Contact
	selectedID string
}

// ClientResolver matches customer phone numbers to Bling client records.
// Sessions are held in memory, keyed by normalized phone.
type ClientResolver struct {
	store  MappingStore
	crm    CRMClient
	logger *observability.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(store MappingStore, crm CRMClient, logger *observability.Logger) *ClientResolver {
	return &ClientResolver{
		store:    store,
		crm:      crm,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// NormalizePhone strips every non-digit rune
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SearchByPhone starts (or restarts) a resolution session for a phone.
// The candidate with a tax id is auto-selected, otherwise the first one.
func (r *ClientResolver) SearchByPhone(ctx context.Context, phone string) (Resolution, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Resolution{}, ErrEmptyPhone
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "customer_phone", Value: normalized})

	candidates, err := r.crm.SearchContactsByPhone(ctx, normalized)
	if err != nil {
		r.logger.Error(ctx, "failed to search clients by phone", err)
		return Resolution{}, err
	}

	s := &session{candidates: candidates}
	if len(candidates) == 0 {
		s.state = StateUnmatched
	} else {
		s.state = StateMatched
		s.selectedID = autoSelect(candidates)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[normalized] = s

	return r.snapshot(normalized, s), nil
}

// SearchByTerm runs a manual search within an existing session. A candidate
// is auto-selected only when the search returns exactly one.
func (r *ClientResolver) SearchByTerm(ctx context.Context, phone, term string) (Resolution, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Resolution{}, ErrEmptyPhone
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "customer_phone", Value: normalized})

	r.mu.Lock()
	s, ok := r.sessions[normalized]
	r.mu.Unlock()
	if !ok {
		return Resolution{}, ErrNoActiveResolution
	}

	candidates, err := r.crm.SearchContactsByTerm(ctx, term)
	if err != nil {
		r.logger.Error(ctx, "failed to search clients by term", err)
		return Resolution{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.candidates = candidates
	s.selectedID = ""
	if len(candidates) == 0 {
		s.state = StateUnmatched
	} else {
		s.state = StateMatched
		if len(candidates) == 1 {
			s.selectedID = candidates[0].ID
		}
	}

	return r.snapshot(normalized, s), nil
}

// SelectCandidate replaces the session's selection. Always permitted while
// a session exists.
func (r *ClientResolver) SelectCandidate(ctx context.Context, phone, candidateID string) (Resolution, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Resolution{}, ErrEmptyPhone
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[normalized]
	if !ok {
		return Resolution{}, ErrNoActiveResolution
	}

	for _, candidate := range s.candidates {
		if candidate.ID == candidateID {
			s.selectedID = candidateID
			s.state = StateMatched
			return r.snapshot(normalized, s), nil
		}
	}
	return Resolution{}, ErrCandidateNotFound
}

// Confirm persists the selected candidate as the mapping for the phone.
// On persistence failure the session stays matched so confirm can be retried.
func (r *ClientResolver) Confirm(ctx context.Context, phone string) (store.ClientMapping, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return store.ClientMapping{}, ErrEmptyPhone
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "customer_phone", Value: normalized})

	r.mu.Lock()
	s, ok := r.sessions[normalized]
	if !ok {
		r.mu.Unlock()
		return store.ClientMapping{}, ErrNoActiveResolution
	}
	selectedID := s.selectedID
	var selected *bling.Contact
	for i := range s.candidates {
		if s.candidates[i].ID == selectedID {
			selected = &s.candidates[i]
			break
		}
	}
	r.mu.Unlock()

	if selected == nil {
		return store.ClientMapping{}, ErrNoSelection
	}

	mapping, err := r.store.UpsertClientMapping(ctx, store.UpsertClientMappingParams{
		CustomerPhone:    normalized,
		BlingClientID:    selected.ID,
		BlingClientName:  selected.Name,
		BlingClientTaxID: selected.TaxID,
	})
	if err != nil {
		r.logger.Error(ctx, "failed to persist client mapping", err)
		return store.ClientMapping{}, ErrMappingPersist
	}

	r.mu.Lock()
	s.state = StateConfirmed
	r.mu.Unlock()

	r.logger.Info(ctx, "client mapping confirmed")
	return mapping, nil
}

// CreateNew creates a fresh Bling contact for the phone. No mapping row is
// written, the link happens once the new contact is confirmed downstream.
func (r *ClientResolver) CreateNew(ctx context.Context, phone, name, taxID, email string) (bling.Contact, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return bling.Contact{}, ErrEmptyPhone
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "customer_phone", Value: normalized})

	r.mu.Lock()
	s, ok := r.sessions[normalized]
	r.mu.Unlock()
	if !ok {
		return bling.Contact{}, ErrNoActiveResolution
	}

	contact, err := r.crm.CreateContact(ctx, bling.CreateContactParams{
		Name:  name,
		TaxID: taxID,
		Phone: normalized,
		Email: email,
	})
	if err != nil {
		r.logger.Error(ctx, "failed to create bling contact", err)
		return bling.Contact{}, err
	}

	r.mu.Lock()
	s.state = StateCreatedNew
	r.mu.Unlock()

	return contact, nil
}

// GetMapping returns the confirmed mapping for a phone, if any
func (r *ClientResolver) GetMapping(ctx context.Context, phone string) (store.ClientMapping, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return store.ClientMapping{}, ErrEmptyPhone
	}
	return r.store.GetClientMappingByPhone(ctx, normalized)
}

// DeleteMapping unlinks a phone from its Bling client
func (r *ClientResolver) DeleteMapping(ctx context.Context, phone string) error {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return ErrEmptyPhone
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "customer_phone", Value: normalized})

	if err := r.store.DeleteClientMapping(ctx, normalized); err != nil {
		return err
	}

	r.logger.Info(ctx, "client mapping removed")
	return nil
}

// autoSelect prefers the candidate carrying a tax id, falling back to the first
func autoSelect(candidates []bling.Contact) string {
	for _, candidate := range candidates {
		if candidate.TaxID != "" {
			return candidate.ID
		}
	}
	return candidates[0].ID
}

func (r *ClientResolver) snapshot(phone string, s *session) Resolution {
	candidates := make([]bling.Contact, len(s.candidates))
	copy(candidates, s.candidates)
	return Resolution{
		Phone:      phone,
		State:      s.state,
		Candidates: candidates,
		SelectedID: s.selectedID,
	}
}
