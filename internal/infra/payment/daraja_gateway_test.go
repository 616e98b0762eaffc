//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
)

func newTestGateway(t *testing.T, stkHandler http.HandlerFunc) (*DarajaGateway, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", stkHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewDarajaGateway(srv.URL, "key", "secret", "174379", "passkey", "https://portal.example/callback")
	return g, &tokenCalls
}

func TestDarajaGateway_RequestSTKPush(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns correlation ids and caches the token", func(t *testing.T) {
		var gotAuth string
		var gotBody darajaSTKRequest
		g, tokenCalls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID":   "mr-1",
				"CheckoutRequestID":   "ws_CO_123",
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
			})
		})

		res, err := g.RequestSTKPush(ctx, "254712345678", 50, "HOTSPOT", "1 hour plan")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.CheckoutRequestID != "ws_CO_123" || res.MerchantRequestID != "mr-1" {
			t.Errorf("unexpected result: %+v", res)
		}
		if gotAuth != "Bearer tok-1" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if gotBody.PhoneNumber != "254712345678" || gotBody.Amount != 50 || gotBody.PartyB != "174379" {
			t.Errorf("unexpected request body: %+v", gotBody)
		}
		if gotBody.TransactionType != "CustomerPayBillOnline" {
			t.Errorf("TransactionType = %q", gotBody.TransactionType)
		}

		// second push reuses the cached token
		if _, err := g.RequestSTKPush(ctx, "254712345678", 50, "HOTSPOT", "again"); err != nil {
			t.Fatalf("second push: %v", err)
		}
		if *tokenCalls != 1 {
			t.Errorf("token exchanges = %d, want 1", *tokenCalls)
		}
	})

	t.Run("non-zero response code maps to ErrGatewayRejected", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode":        "1032",
				"ResponseDescription": "Request cancelled by user",
			})
		})
		_, err := g.RequestSTKPush(ctx, "254712345678", 50, "HOTSPOT", "plan")
		if !errors.Is(err, domain.ErrGatewayRejected) {
			t.Errorf("err = %v, want ErrGatewayRejected", err)
		}
	})
}

func TestParseCallback(t *testing.T) {
	t.Run("success payload", func(t *testing.T) {
		body := `{"Body":{"stkCallback":{
			"MerchantRequestID":"mr-1",
			"CheckoutRequestID":"ws_CO_123",
			"ResultCode":0,
			"ResultDesc":"The service request is processed successfully.",
			"CallbackMetadata":{"Item":[
				{"Name":"Amount","Value":50.0},
				{"Name":"MpesaReceiptNumber","Value":"RKTQDM7W6S"},
				{"Name":"TransactionDate","Value":20260301120000},
				{"Name":"PhoneNumber","Value":254712345678}
			]}}}}`
		res, err := ParseCallback(strings.NewReader(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success || res.Amount != 50 || res.Receipt != "RKTQDM7W6S" {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.Phone != "254712345678" {
			t.Errorf("Phone = %q", res.Phone)
		}
	})

	t.Run("failure payload has no metadata", func(t *testing.T) {
		body := `{"Body":{"stkCallback":{
			"MerchantRequestID":"mr-2",
			"CheckoutRequestID":"ws_CO_456",
			"ResultCode":1032,
			"ResultDesc":"Request cancelled by user"}}}`
		res, err := ParseCallback(strings.NewReader(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success || res.ResultCode != 1032 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("missing correlation id is structurally invalid", func(t *testing.T) {
		if _, err := ParseCallback(strings.NewReader(`{"Body":{"stkCallback":{}}}`)); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := ParseCallback(strings.NewReader(`{nope`)); err == nil {
			t.Error("expected an error")
		}
	})
}
