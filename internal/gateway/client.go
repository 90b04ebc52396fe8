package gateway

import "context"

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Contact struct {
	ID string `json:"id"`
}

type FundAccount struct {
	ID string `json:"id"`
}

type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type PaymentDetail struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Fee       int64  `json:"fee"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	CreatedAt int64  `json:"created_at"`
}

// Client is the outbound payment-gateway surface: order creation for
// customer payments, payee (contact + fund account) provisioning, payouts
// and payment lookups. Amounts are integral minor units throughout.
type Client interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentDetail, error)
	CreateContact(ctx context.Context, name, email, phone, referenceID string) (*Contact, error)
	CreateFundAccount(ctx context.Context, contactID, vpaAddress string) (*FundAccount, error)
	CreatePayout(ctx context.Context, fundAccountID string, amountMinor int64, currency, narration, referenceID, idempotencyKey string) (*Payout, error)
}
