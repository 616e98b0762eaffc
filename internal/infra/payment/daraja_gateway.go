package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PaymentGateway = (*DarajaGateway)(nil)

// DarajaGateway implements the M-Pesa Daraja STK push flow with direct HTTP
// calls: a basic-auth client-credentials token exchange, then a push-payment
// request correlated by the CheckoutRequestID echoed in the webhook.
type DarajaGateway struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	callbackURL    string
	client         *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	now func() time.Time
}

func NewDarajaGateway(baseURL, consumerKey, consumerSecret, shortCode, passkey, callbackURL string) *DarajaGateway {
	return &DarajaGateway{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		shortCode:      shortCode,
		passkey:        passkey,
		callbackURL:    callbackURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}
}

func (g *DarajaGateway) Name() string { return "daraja" }

type darajaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // seconds, as a string
}

// accessToken returns a cached bearer token, refreshing it under the mutex
// so concurrent requests trigger at most one exchange.
func (g *DarajaGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	url := g.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(g.consumerKey, g.consumerSecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, string(body))
	}

	var tr darajaTokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w, body: %s", err, string(body))
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no access_token: %s", string(body))
	}

	ttl := 3600
	if n, err := strconv.Atoi(tr.ExpiresIn); err == nil && n > 0 {
		ttl = n
	}
	g.token = tr.AccessToken
	// refresh slightly early so in-flight requests never carry a dead token
	g.tokenExpiry = g.now().Add(time.Duration(ttl-30) * time.Second)
	return g.token, nil
}

type darajaSTKRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type darajaSTKResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorMessage        string `json:"errorMessage"`
}

// RequestSTKPush implements adapter.PaymentGateway.
func (g *DarajaGateway) RequestSTKPush(ctx context.Context, phone string, amount int64, accountRef, description string) (*adapter.STKResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := g.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortCode + g.passkey + ts))

	payload := darajaSTKRequest{
		BusinessShortCode: g.shortCode,
		Password:          password,
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            g.shortCode,
		PhoneNumber:       phone,
		CallBackURL:       g.callbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stk request: %w", err)
	}

	url := g.baseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create stk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send stk request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stk response: %w", err)
	}

	var sr darajaSTKResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stk response: %w, body: %s", err, string(body))
	}

	if sr.ResponseCode != "0" {
		msg := sr.ResponseDescription
		if msg == "" {
			msg = sr.ErrorMessage
		}
		return nil, fmt.Errorf("%w: code=%q desc=%q", domain.ErrGatewayRejected, sr.ResponseCode, msg)
	}

	return &adapter.STKResult{
		MerchantRequestID: sr.MerchantRequestID,
		CheckoutRequestID: sr.CheckoutRequestID,
		Description:       sr.CustomerMessage,
	}, nil
}
