package subscriptions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	"github.com/dmarqs/promoterhub-backend/pkg/square"
)

// SquareGateway defines the subset of Square interactions the subscription
// service relies on.
type SquareGateway interface {
	EnsureCustomerID(ctx context.Context, params CustomerParams) (string, error)
	CreateCardID(ctx context.Context, params CardParams) (string, error)
	CreateSubscription(ctx context.Context, params *SquareSubscriptionParams) (*SquareSubscription, error)
	CancelSubscription(ctx context.Context, id string) (*SquareSubscription, error)
	GetSubscription(ctx context.Context, id string) (*SquareSubscription, error)
}

// NewSquareGateway wraps the shared pkg/square client with the required
// location context.
func NewSquareGateway(client *square.Client, locationID string) SquareGateway {
	return &squareGateway{
		square:     client,
		locationID: strings.TrimSpace(locationID),
	}
}

type squareGateway struct {
	square     *square.Client
	locationID string
}

func (g *squareGateway) EnsureCustomerID(ctx context.Context, params CustomerParams) (string, error) {
	if g.square == nil {
		return "", fmt.Errorf("square client required")
	}
	customer, err := g.square.EnsureCustomer(ctx, square.CustomerCreateParams{
		Email:       params.Email,
		CompanyName: params.CompanyName,
		ReferenceID: params.ReferenceID,
	})
	if err != nil {
		return "", err
	}
	id := safeString(customer.GetID())
	if id == "" {
		return "", fmt.Errorf("square customer id missing from response")
	}
	return id, nil
}

func (g *squareGateway) CreateCardID(ctx context.Context, params CardParams) (string, error) {
	if g.square == nil {
		return "", fmt.Errorf("square client required")
	}
	card, err := g.square.CreateCard(ctx, square.CardCreateParams{
		CustomerID:     params.CustomerID,
		SourceID:       params.SourceID,
		CardholderName: params.CardholderName,
	})
	if err != nil {
		return "", err
	}
	id := safeString(card.GetID())
	if id == "" {
		return "", fmt.Errorf("square card id missing from response")
	}
	return id, nil
}

func (g *squareGateway) CreateSubscription(ctx context.Context, params *SquareSubscriptionParams) (*SquareSubscription, error) {
	if g.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	if g.locationID == "" {
		return nil, fmt.Errorf("square location id required")
	}
	if params == nil {
		return nil, fmt.Errorf("square subscription params required")
	}

	resp, err := g.square.CreateSubscription(ctx, square.SubscriptionCreateParams{
		LocationID:      g.locationID,
		PlanVariationID: strings.TrimSpace(params.PlanVariationID),
		CustomerID:      params.CustomerID,
		CardID:          params.CardID,
	})
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, params.Metadata), nil
}

func (g *squareGateway) CancelSubscription(ctx context.Context, id string) (*SquareSubscription, error) {
	if g.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	resp, err := g.square.CancelSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, nil), nil
}

func (g *squareGateway) GetSubscription(ctx context.Context, id string) (*SquareSubscription, error) {
	if g.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	resp, err := g.square.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, nil), nil
}

func convertSubscription(resp *sq.Subscription, metadata map[string]string) *SquareSubscription {
	if resp == nil {
		return nil
	}
	status := resp.GetStatus()
	return &SquareSubscription{
		ID:                 safeString(resp.GetID()),
		Status:             subscriptionStatusString(status),
		PlanVariationID:    safeString(resp.GetPlanVariationID()),
		Metadata:           cloneMetadata(metadata),
		CancelAtPeriodEnd:  status != nil && *status == sq.SubscriptionStatusCanceled,
		CanceledAt:         parseDate(resp.GetCanceledDate()),
		StartDate:          parseDate(resp.GetStartDate()),
		ChargedThroughDate: parseDate(resp.GetChargedThroughDate()),
	}
}

func cloneMetadata(rows map[string]string) map[string]string {
	if len(rows) == 0 {
		return nil
	}
	clone := make(map[string]string, len(rows))
	for k, v := range rows {
		clone[k] = v
	}
	return clone
}

func parseDate(value *string) int64 {
	if value == nil || strings.TrimSpace(*value) == "" {
		return 0
	}
	formats := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range formats {
		if ts, err := time.Parse(layout, *value); err == nil {
			return ts.Unix()
		}
	}
	if i, err := strconv.ParseInt(*value, 10, 64); err == nil {
		return i
	}
	return 0
}

func safeString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func subscriptionStatusString(status *sq.SubscriptionStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}
