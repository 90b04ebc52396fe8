package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RazorpayClient talks to the Razorpay REST API (orders) and the RazorpayX
// API (contacts, fund accounts, payouts) over a single authenticated HTTP
// client with a bounded timeout.
type RazorpayClient struct {
	baseURL       string
	keyID         string
	keySecret     string
	accountNumber string
	http          *http.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret, accountNumber string, timeout time.Duration) (*RazorpayClient, error) {
	if keyID == "" || keySecret == "" || accountNumber == "" {
		return nil, errors.New("gateway key id, key secret and account number must be set")
	}

	return &RazorpayClient{
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		accountNumber: accountNumber,
		http:          &http.Client{Timeout: timeout},
	}, nil
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("invalid order amount: %d", amountMinor)
	}

	body := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", body, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetail, error) {
	var payment PaymentDetail
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *RazorpayClient) CreateContact(ctx context.Context, name, email, phone, referenceID string) (*Contact, error) {
	body := map[string]any{
		"name":  name,
		"email": email,
		"type":  "employee",
	}
	if phone != "" {
		body["contact"] = phone
	}
	if referenceID != "" {
		body["reference_id"] = referenceID
	}

	var contact Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", body, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *RazorpayClient) CreateFundAccount(ctx context.Context, contactID, vpaAddress string) (*FundAccount, error) {
	if contactID == "" || vpaAddress == "" {
		return nil, errors.New("contact id and payment address are required")
	}

	body := map[string]any{
		"contact_id":   contactID,
		"account_type": "vpa",
		"vpa":          map[string]string{"address": vpaAddress},
	}

	var account FundAccount
	if err := c.do(ctx, http.MethodPost, "/fund_accounts", body, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *RazorpayClient) CreatePayout(ctx context.Context, fundAccountID string, amountMinor int64, currency, narration, referenceID, idempotencyKey string) (*Payout, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("invalid payout amount: %d", amountMinor)
	}
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key is required for payouts")
	}

	body := map[string]any{
		"account_number":  c.accountNumber,
		"fund_account_id": fundAccountID,
		"amount":          amountMinor,
		"currency":        currency,
		"mode":            "UPI",
		"purpose":         "payout",
		"narration":       narration,
		"reference_id":    referenceID,
	}
	headers := map[string]string{"X-Payout-Idempotency": idempotencyKey}

	var payout Payout
	if err := c.do(ctx, http.MethodPost, "/payouts", body, headers, &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("gateway %s %s returned %d: %s", method, path, res.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
