package whatsapp

import (
	"atacado-server/internal/observability"
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client sends WhatsApp messages through Twilio
type Client struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *observability.Logger
}

// NewClient creates a new WhatsApp messaging client. fromNumber is the
// sender in E.164 format without the whatsapp: prefix.
func NewClient(accountSID, authToken, fromNumber string, logger *observability.Logger) *Client {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Client{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

// SendMessage delivers a WhatsApp message to a single recipient.
// Returns the Twilio message SID.
func (c *Client) SendMessage(ctx context.Context, toNumber, body string) (string, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "whatsapp_to", Value: toNumber},
	)

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + c.fromNumber)
	params.SetTo("whatsapp:" + toNumber)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		c.logger.Error(ctx, "failed to send whatsapp message", err)
		return "", fmt.Errorf("failed to send whatsapp message: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}

	c.logger.Info(ctx, "whatsapp message sent")
	return sid, nil
}
