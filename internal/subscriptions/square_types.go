package subscriptions

// SquareSubscription is the subset of provider state we mirror into the
// billing tables.
type SquareSubscription struct {
	ID                 string
	Status             string
	PlanVariationID    string
	Metadata           map[string]string
	CancelAtPeriodEnd  bool
	CanceledAt         int64
	StartDate          int64
	ChargedThroughDate int64
}

// SquareSubscriptionParams captures the inputs for starting a subscription.
type SquareSubscriptionParams struct {
	CustomerID      string
	PlanVariationID string
	CardID          string
	Metadata        map[string]string
}

// CustomerParams identifies or creates the Square customer for an account.
type CustomerParams struct {
	Email       string
	CompanyName string
	ReferenceID string
}

// CardParams vaults a tokenized card against a Square customer.
type CardParams struct {
	CustomerID     string
	SourceID       string
	CardholderName string
}
