package processor

import (
	"atacado-server/internal/clients/bling"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockOrderStore struct {
	orders        map[uuid.UUID]store.Order
	campaigns     map[uuid.UUID]store.Campaign
	mappings      map[string]store.ClientMapping
	linkedOrders  store.UUIDArray
	linkedURL     string
	linkedStatus  string
	movedOrders   store.UUIDArray
	movedCampaign uuid.UUID
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders:    make(map[uuid.UUID]store.Order),
		campaigns: make(map[uuid.UUID]store.Campaign),
		mappings:  make(map[string]store.ClientMapping),
	}
}

func (m *mockOrderStore) CreateOrder(_ context.Context, params store.CreateOrderParams) (store.Order, error) {
	order := store.Order{
		ID:            uuid.New(),
		CampaignID:    params.CampaignID,
		CustomerName:  params.CustomerName,
		CustomerPhone: params.CustomerPhone,
		CustomerEmail: params.CustomerEmail,
		TotalCents:    params.TotalCents,
		Status:        params.Status,
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, orderID uuid.UUID) (store.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderStore) ListOrdersByCampaign(_ context.Context, campaignID uuid.UUID) ([]store.Order, error) {
	var out []store.Order
	for _, order := range m.orders {
		if order.CampaignID != nil && *order.CampaignID == campaignID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status string) (store.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	order.Status = status
	m.orders[orderID] = order
	return order, nil
}

func (m *mockOrderStore) GetOrdersByIDs(_ context.Context, orderIDs store.UUIDArray) ([]store.Order, error) {
	var out []store.Order
	for _, id := range orderIDs {
		if order, ok := m.orders[id]; ok {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockOrderStore) SetOrderPaymentLink(_ context.Context, orderIDs store.UUIDArray, linkURL, status string) error {
	m.linkedOrders = orderIDs
	m.linkedURL = linkURL
	m.linkedStatus = status
	return nil
}

func (m *mockOrderStore) MoveOrders(_ context.Context, orderIDs store.UUIDArray, targetCampaignID uuid.UUID) (int64, error) {
	m.movedOrders = orderIDs
	m.movedCampaign = targetCampaignID
	return int64(len(orderIDs)), nil
}

func (m *mockOrderStore) GetCampaignByID(_ context.Context, campaignID uuid.UUID) (store.Campaign, error) {
	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return store.Campaign{}, store.ErrNotFound
	}
	return campaign, nil
}

func (m *mockOrderStore) GetClientMappingByPhone(_ context.Context, phone string) (store.ClientMapping, error) {
	mapping, ok := m.mappings[phone]
	if !ok {
		return store.ClientMapping{}, store.ErrNotFound
	}
	return mapping, nil
}

type mockCRM struct {
	synced  []bling.OrderSyncItem
	syncErr error
}

func (m *mockCRM) SyncOpenOrders(_ context.Context, items []bling.OrderSyncItem) error {
	if m.syncErr != nil {
		return m.syncErr
	}
	m.synced = items
	return nil
}

type mockPayments struct {
	mu      sync.Mutex
	linkURL string
	linkErr error
	delay   time.Duration
	calls   int
}

func (m *mockPayments) CreatePaymentLink(_ context.Context, _ string, _ int64) (string, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.linkErr != nil {
		return "", m.linkErr
	}
	return m.linkURL, nil
}

type mockMessenger struct {
	sent    map[string]string
	failFor map[string]bool
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{sent: make(map[string]string), failFor: make(map[string]bool)}
}

func (m *mockMessenger) SendMessage(_ context.Context, toNumber, body string) (string, error) {
	if m.failFor[toNumber] {
		return "", errors.New("twilio unavailable")
	}
	m.sent[toNumber] = body
	return "SM123", nil
}

type mockMailer struct {
	sentTo []string
}

func (m *mockMailer) SendEmail(_ context.Context, _, to, _, _ string) (string, error) {
	m.sentTo = append(m.sentTo, to)
	return "email-id", nil
}

func newTestComposer(st *mockOrderStore, crm *mockCRM, pay *mockPayments,
	msg *mockMessenger, mail *mockMailer) *FulfillmentComposer {
	return New(st, crm, pay, msg, mail, "pedidos@atacado.com.br", observability.NewLogger())
}

func addOrder(st *mockOrderStore, phone string, totalCents int64, email string) uuid.UUID {
	id := uuid.New()
	order := store.Order{
		ID:            id,
		CustomerName:  "Maria Silva",
		CustomerPhone: phone,
		TotalCents:    totalCents,
		Status:        store.OrderStatusDraft,
	}
	if email != "" {
		order.CustomerEmail = &email
	}
	st.orders[id] = order
	return id
}

func TestFulfillmentComposer_PreviewComposesDraft(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 12550, "")
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	draft, err := composer.Preview(context.Background(), []uuid.UUID{id}, "Entrega na quinta.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(draft, "Maria Silva") {
		t.Errorf("expected draft to greet the customer, got %q", draft)
	}
	if !strings.Contains(draft, "R$ 125,50") {
		t.Errorf("expected formatted total in draft, got %q", draft)
	}
	if !strings.Contains(draft, "Entrega na quinta.") {
		t.Errorf("expected custom message in draft, got %q", draft)
	}
}

func TestFulfillmentComposer_PreviewEmptySet(t *testing.T) {
	composer := newTestComposer(newMockOrderStore(), &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	if _, err := composer.Preview(context.Background(), nil, ""); !errors.Is(err, ErrEmptyOrderSet) {
		t.Errorf("expected ErrEmptyOrderSet, got %v", err)
	}
}

func TestFulfillmentComposer_PreviewUnknownOrder(t *testing.T) {
	composer := newTestComposer(newMockOrderStore(), &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	if _, err := composer.Preview(context.Background(), []uuid.UUID{uuid.New()}, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestFulfillmentComposer_GeneratePaymentLink(t *testing.T) {
	st := newMockOrderStore()
	id1 := addOrder(st, "11999990001", 10000, "")
	id2 := addOrder(st, "11999990001", 5000, "")
	st.mappings["11999990001"] = store.ClientMapping{CustomerPhone: "11999990001", BlingClientID: "bling-77"}
	crm := &mockCRM{}
	pay := &mockPayments{linkURL: "https://pay.example/abc"}
	composer := newTestComposer(st, crm, pay, newMockMessenger(), nil)

	linkURL, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id1, id2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if linkURL != "https://pay.example/abc" {
		t.Errorf("expected link URL, got %q", linkURL)
	}
	if len(crm.synced) != 2 {
		t.Fatalf("expected 2 orders synced to bling, got %d", len(crm.synced))
	}
	if crm.synced[0].ContactID != "bling-77" {
		t.Errorf("expected mapped bling contact on sync item, got %q", crm.synced[0].ContactID)
	}
	if st.linkedURL != "https://pay.example/abc" {
		t.Errorf("expected link persisted on orders, got %q", st.linkedURL)
	}
	if st.linkedStatus != store.OrderStatusOpen {
		t.Errorf("expected orders moved to open, got %q", st.linkedStatus)
	}
}

func TestFulfillmentComposer_GenerateLinkOnlyOnce(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	pay := &mockPayments{linkURL: "https://pay.example/abc"}
	composer := newTestComposer(st, &mockCRM{}, pay, newMockMessenger(), nil)

	if _, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id}); err != nil {
		t.Fatalf("expected first generation to succeed, got %v", err)
	}
	if _, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id}); !errors.Is(err, ErrLinkAlreadyGenerated) {
		t.Errorf("expected ErrLinkAlreadyGenerated, got %v", err)
	}
	if pay.calls != 1 {
		t.Errorf("expected a single payment link call, got %d", pay.calls)
	}
}

func TestFulfillmentComposer_GenerateLinkWhileInFlight(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	pay := &mockPayments{linkURL: "https://pay.example/abc", delay: 100 * time.Millisecond}
	composer := newTestComposer(st, &mockCRM{}, pay, newMockMessenger(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id})
		done <- err
	}()
	time.Sleep(30 * time.Millisecond)

	if _, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id}); !errors.Is(err, ErrLinkPending) {
		t.Errorf("expected ErrLinkPending while first call runs, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected first generation to succeed, got %v", err)
	}
}

func TestFulfillmentComposer_GenerateLinkRetriableAfterFailure(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	pay := &mockPayments{linkErr: errors.New("stripe down")}
	composer := newTestComposer(st, &mockCRM{}, pay, newMockMessenger(), nil)

	if _, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id}); err == nil {
		t.Fatal("expected failure from payment client")
	}

	pay.linkErr = nil
	pay.linkURL = "https://pay.example/retry"
	linkURL, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if linkURL != "https://pay.example/retry" {
		t.Errorf("expected retried link URL, got %q", linkURL)
	}
}

func TestFulfillmentComposer_LinkAppendedToDraftOnce(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	pay := &mockPayments{linkURL: "https://pay.example/abc"}
	composer := newTestComposer(st, &mockCRM{}, pay, newMockMessenger(), nil)

	if _, err := composer.Preview(context.Background(), []uuid.UUID{id}, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}
	if _, err := composer.GeneratePaymentLink(context.Background(), []uuid.UUID{id}); err != nil {
		t.Fatalf("expected link generation to succeed, got %v", err)
	}

	draft, err := composer.Preview(context.Background(), []uuid.UUID{id}, "")
	if err != nil {
		t.Fatalf("expected second preview to succeed, got %v", err)
	}
	if got := strings.Count(draft, "https://pay.example/abc"); got != 1 {
		t.Errorf("expected link to appear exactly once in draft, got %d", got)
	}
}

func TestFulfillmentComposer_SendRequiresPreview(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	if _, err := composer.Send(context.Background(), []uuid.UUID{id}, ""); !errors.Is(err, ErrPreviewFailed) {
		t.Errorf("expected ErrPreviewFailed without a preview, got %v", err)
	}
}

func TestFulfillmentComposer_SendPartialFailure(t *testing.T) {
	st := newMockOrderStore()
	id1 := addOrder(st, "11999990001", 10000, "")
	id2 := addOrder(st, "11999990002", 5000, "")
	msg := newMockMessenger()
	msg.failFor["11999990002"] = true
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, msg, nil)

	ids := []uuid.UUID{id1, id2}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}

	result, err := composer.Send(context.Background(), ids, "")
	if err != nil {
		t.Fatalf("expected partial failure to not be fatal, got %v", err)
	}
	if len(result.Sent) != 1 || result.Sent[0] != "11999990001" {
		t.Errorf("expected one sent recipient, got %v", result.Sent)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "11999990002" {
		t.Errorf("expected one failed recipient, got %v", result.Failed)
	}
}

func TestFulfillmentComposer_SendTotalFailure(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	msg := newMockMessenger()
	msg.failFor["11999990001"] = true
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, msg, nil)

	ids := []uuid.UUID{id}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}

	if _, err := composer.Send(context.Background(), ids, ""); !errors.Is(err, ErrSendFailed) {
		t.Errorf("expected ErrSendFailed when no recipient succeeds, got %v", err)
	}
}

func TestFulfillmentComposer_SendDeduplicatesRecipients(t *testing.T) {
	st := newMockOrderStore()
	id1 := addOrder(st, "11999990001", 10000, "")
	id2 := addOrder(st, "11999990001", 5000, "")
	msg := newMockMessenger()
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, msg, nil)

	ids := []uuid.UUID{id1, id2}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}

	result, err := composer.Send(context.Background(), ids, "")
	if err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if len(result.Sent) != 1 {
		t.Errorf("expected single dispatch for duplicated phone, got %v", result.Sent)
	}
}

func TestFulfillmentComposer_SendEmailCopy(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "maria@example.com")
	mail := &mockMailer{}
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), mail)

	ids := []uuid.UUID{id}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}
	if _, err := composer.Send(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if len(mail.sentTo) != 1 || mail.sentTo[0] != "maria@example.com" {
		t.Errorf("expected email copy to customer, got %v", mail.sentTo)
	}
}

func TestFulfillmentComposer_SendBlockedWhileLinkPending(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	pay := &mockPayments{linkURL: "https://pay.example/abc", delay: 100 * time.Millisecond}
	composer := newTestComposer(st, &mockCRM{}, pay, newMockMessenger(), nil)

	ids := []uuid.UUID{id}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := composer.GeneratePaymentLink(context.Background(), ids)
		done <- err
	}()
	time.Sleep(30 * time.Millisecond)

	if _, err := composer.Send(context.Background(), ids, ""); !errors.Is(err, ErrLinkPending) {
		t.Errorf("expected ErrLinkPending during link generation, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected link generation to succeed, got %v", err)
	}
}

func TestFulfillmentComposer_Move(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	target := uuid.New()
	st.campaigns[target] = store.Campaign{ID: target, Name: "Campanha Inverno"}
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	moved, err := composer.Move(context.Background(), []uuid.UUID{id}, target)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if moved != 1 {
		t.Errorf("expected 1 moved order, got %d", moved)
	}
	if st.movedCampaign != target {
		t.Errorf("expected move to target campaign, got %s", st.movedCampaign)
	}
}

func TestFulfillmentComposer_CreateOrder(t *testing.T) {
	st := newMockOrderStore()
	campaignID := uuid.New()
	st.campaigns[campaignID] = store.Campaign{ID: campaignID, Name: "Campanha Verão"}
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	order, err := composer.CreateOrder(context.Background(), store.CreateOrderParams{
		CampaignID:    &campaignID,
		CustomerName:  "  Maria Silva  ",
		CustomerPhone: "11999990001",
		TotalCents:    12550,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.CustomerName != "Maria Silva" {
		t.Errorf("expected trimmed customer name, got %q", order.CustomerName)
	}
	if order.Status != store.OrderStatusDraft {
		t.Errorf("expected draft status by default, got %q", order.Status)
	}
}

func TestFulfillmentComposer_CreateOrderValidation(t *testing.T) {
	composer := newTestComposer(newMockOrderStore(), &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	cases := []store.CreateOrderParams{
		{CustomerPhone: "11999990001", TotalCents: 100},
		{CustomerName: "Maria", TotalCents: 100},
		{CustomerName: "Maria", CustomerPhone: "11999990001", TotalCents: 0},
	}
	for _, params := range cases {
		if _, err := composer.CreateOrder(context.Background(), params); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("expected ErrInvalidOrder for %+v, got %v", params, err)
		}
	}
}

func TestFulfillmentComposer_CreateOrderUnknownCampaign(t *testing.T) {
	campaignID := uuid.New()
	composer := newTestComposer(newMockOrderStore(), &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	_, err := composer.CreateOrder(context.Background(), store.CreateOrderParams{
		CampaignID:    &campaignID,
		CustomerName:  "Maria",
		CustomerPhone: "11999990001",
		TotalCents:    100,
	})
	if !errors.Is(err, ErrTargetCampaignNotFound) {
		t.Errorf("expected ErrTargetCampaignNotFound, got %v", err)
	}
}

func TestFulfillmentComposer_SendConfirmsOrders(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	ids := []uuid.UUID{id}
	if _, err := composer.Preview(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}
	if _, err := composer.Send(context.Background(), ids, ""); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if got := st.orders[id].Status; got != store.OrderStatusConfirmed {
		t.Errorf("expected order confirmed after dispatch, got %q", got)
	}
}

func TestFulfillmentComposer_MoveUnknownCampaign(t *testing.T) {
	st := newMockOrderStore()
	id := addOrder(st, "11999990001", 10000, "")
	composer := newTestComposer(st, &mockCRM{}, &mockPayments{}, newMockMessenger(), nil)

	if _, err := composer.Move(context.Background(), []uuid.UUID{id}, uuid.New()); !errors.Is(err, ErrTargetCampaignNotFound) {
		t.Errorf("expected ErrTargetCampaignNotFound, got %v", err)
	}
}
