package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

type stripeGateway struct {
	sessions      *session.Client
	webhookSecret string
	log           *zap.Logger
}

func NewStripeGateway(secretKey, webhookSecret string, log *zap.Logger) Gateway {
	return &stripeGateway{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (g *stripeGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(p.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.Title),
						Description: optionalString(p.Description),
					},
					UnitAmount: stripe.Int64(p.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("meeting_id", p.MeetingID.String())
	params.AddMetadata("slot_id", p.SlotID.String())
	params.AddMetadata("mentee_id", p.MenteeID.String())
	params.AddMetadata("mentor_id", p.MentorID.String())
	params.AddMetadata("notes", p.Notes)

	s, err := g.sessions.New(params)
	if err != nil {
		g.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.String("slot_id", p.SlotID.String()),
			zap.String("mentee_id", p.MenteeID.String()),
		)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	g.log.Info("Checkout session created",
		zap.String("session_id", s.ID),
		zap.String("slot_id", p.SlotID.String()),
	)

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.log.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	event := &Event{ID: evt.ID, RawType: string(evt.Type), Type: EventIgnored}
	if evt.Data == nil {
		return event, nil
	}

	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		completed, err := checkoutFromSession(&cs)
		if err != nil {
			g.log.Warn("Checkout session has invalid metadata",
				zap.Error(err),
				zap.String("session_id", cs.ID),
			)
			return nil, err
		}
		event.Type = EventCheckoutCompleted
		event.Checkout = completed

	case stripe.EventTypeChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		refund := &ChargeRefunded{ChargeID: ch.ID}
		if ch.PaymentIntent != nil {
			refund.PaymentIntentID = ch.PaymentIntent.ID
		}
		event.Type = EventChargeRefunded
		event.Refund = refund
	}

	return event, nil
}

func checkoutFromSession(cs *stripe.CheckoutSession) (*CheckoutCompleted, error) {
	completed := &CheckoutCompleted{
		SessionID:   cs.ID,
		Notes:       cs.Metadata["notes"],
		AmountTotal: cs.AmountTotal,
		Currency:    strings.ToUpper(string(cs.Currency)),
	}
	if completed.Currency == "" {
		completed.Currency = "USD"
	}
	if cs.PaymentIntent != nil {
		completed.PaymentIntentID = cs.PaymentIntent.ID
	}

	ids := []struct {
		key string
		dst *uuid.UUID
	}{
		{"meeting_id", &completed.MeetingID},
		{"slot_id", &completed.SlotID},
		{"mentee_id", &completed.MenteeID},
		{"mentor_id", &completed.MentorID},
	}
	for _, id := range ids {
		v, err := uuid.Parse(cs.Metadata[id.key])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMetadata, id.key, err)
		}
		*id.dst = v
	}

	return completed, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
