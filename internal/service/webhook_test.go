package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmynk/settlements/internal/auth"
)

const testSystemKey = "pipeline-key-0123456789"

func setupWebhook(t *testing.T) (*testEnv, *httptest.Server, func()) {
	t.Helper()

	env, cleanup := setupTestServer(t)

	hash, err := auth.HashSystemKey(testSystemKey)
	if err != nil {
		t.Fatalf("failed to hash system key: %v", err)
	}
	key, err := auth.NewSystemKey(hash)
	if err != nil {
		t.Fatalf("failed to load system key: %v", err)
	}

	server := httptest.NewServer(NewPaymentWebhook(env.pipeline, key).Routes())
	return env, server, func() {
		server.Close()
		cleanup()
	}
}

func postPaidOrder(t *testing.T, url string, header http.Header, body string) (*http.Response, paidOrderResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/orders/paid", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out paidOrderResponse
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp, out
}

func TestPaymentWebhook_RejectsWithoutKey(t *testing.T) {
	env, server, cleanup := setupWebhook(t)
	defer cleanup()

	body := `{"order_id":"order-1","wholesaler_id":"` + env.acme.ID + `","order_amount":10000,"paid_at":"2025-01-01T10:00:00Z"}`

	tests := []struct {
		name   string
		header http.Header
	}{
		{"no key", http.Header{}},
		{"wrong key", http.Header{"X-System-Key": {"wrong-key-0123456789"}}},
		{"user token", http.Header{"Authorization": {"Bearer " + env.token(t, adminPrincipal)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postPaidOrder(t, server.URL, tt.header, body)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status: expected 401, got %d", resp.StatusCode)
			}
		})
	}

	if _, err := env.store.GetSettlementByOrderID(t.Context(), "order-1"); err == nil {
		t.Error("unauthenticated webhook must not create a settlement")
	}
}

func TestPaymentWebhook_CreatesOnce(t *testing.T) {
	env, server, cleanup := setupWebhook(t)
	defer cleanup()

	body := `{"order_id":"order-1","wholesaler_id":"` + env.acme.ID + `","order_amount":10000,"paid_at":"2025-01-01T10:00:00Z"}`
	header := http.Header{"Authorization": {"Bearer " + testSystemKey}}

	resp, first := postPaidOrder(t, server.URL, header, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: expected 201, got %d", resp.StatusCode)
	}
	if !first.Created {
		t.Error("expected created=true")
	}
	if first.Settlement.PlatformFee != 500 || first.Settlement.WholesalerAmount != 9500 {
		t.Errorf("amounts: expected 500/9500, got %d/%d", first.Settlement.PlatformFee, first.Settlement.WholesalerAmount)
	}
	if got := first.Settlement.ScheduledPayoutAt.Format("2006-01-02"); got != "2025-01-08" {
		t.Errorf("scheduled_payout_at: expected 2025-01-08, got %s", got)
	}

	// redelivery through the other header form
	resp, second := postPaidOrder(t, server.URL, http.Header{"X-System-Key": {testSystemKey}}, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", resp.StatusCode)
	}
	if second.Created {
		t.Error("expected created=false on redelivery")
	}
	if second.Settlement.ID != first.Settlement.ID {
		t.Errorf("id: expected %s, got %s", first.Settlement.ID, second.Settlement.ID)
	}
}

func TestPaymentWebhook_BadRequests(t *testing.T) {
	env, server, cleanup := setupWebhook(t)
	defer cleanup()

	header := http.Header{"X-System-Key": {testSystemKey}}
	bodies := []string{
		`not json`,
		`{"order_id":"o","wholesaler_id":"` + env.acme.ID + `","order_amount":-5,"paid_at":"2025-01-01T10:00:00Z"}`,
		`{"wholesaler_id":"` + env.acme.ID + `","order_amount":5,"paid_at":"2025-01-01T10:00:00Z"}`,
		`{"order_id":"o","wholesaler_id":"` + env.acme.ID + `","order_amount":5}`,
		`{"order_id":"o","wholesaler_id":"` + env.acme.ID + `","order_amount":5,"paid_at":"2025-01-01T10:00:00Z","extra":1}`,
	}

	for _, body := range bodies {
		resp, _ := postPaidOrder(t, server.URL, header, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}
