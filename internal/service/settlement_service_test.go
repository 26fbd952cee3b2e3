package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/middleware"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/settlement"
	"github.com/mmynk/settlements/internal/storage/sqlite"
)

var testNow = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	client   *SettlementServiceClient
	store    *sqlite.SQLiteStore
	pipeline *settlement.Pipeline
	jwt      *auth.JWTManager

	acme, bolt *models.Wholesaler
}

// setupTestServer creates a test server with the SettlementService behind the
// same interceptor chain the server uses.
func setupTestServer(t *testing.T) (*testEnv, func()) {
	t.Helper()

	// Create temp database
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	acme := &models.Wholesaler{OwnerUserID: "user-acme", Name: "Acme Wholesale"}
	bolt := &models.Wholesaler{OwnerUserID: "user-bolt", Name: "Bolt Supply"}
	for _, w := range []*models.Wholesaler{acme, bolt} {
		if err := store.CreateWholesaler(ctx, w); err != nil {
			t.Fatalf("failed to create wholesaler: %v", err)
		}
	}

	pipeline, err := settlement.NewPipeline(store, 0.05, 7)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret-key-for-service-tests", time.Hour)
	engine := settlement.NewEngine(auth.NewGuard(store), store,
		settlement.WithClock(func() time.Time { return testNow }),
	)

	path, handler := NewSettlementServiceHandler(NewSettlementService(engine),
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(nil),
			middleware.MetricsInterceptor(),
		),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	env := &testEnv{
		client:   NewSettlementServiceClient(http.DefaultClient, server.URL),
		store:    store,
		pipeline: pipeline,
		jwt:      jwtManager,
		acme:     acme,
		bolt:     bolt,
	}

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return env, cleanup
}

func (e *testEnv) token(t *testing.T, p *models.Principal) string {
	t.Helper()
	token, err := e.jwt.Generate(p)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func (e *testEnv) paid(t *testing.T, orderID string, w *models.Wholesaler, amount int64, daysAgo int) *models.Settlement {
	t.Helper()
	s, _, err := e.pipeline.HandlePaidOrder(context.Background(), settlement.PaidOrder{
		OrderID:      orderID,
		WholesalerID: w.ID,
		OrderAmount:  amount,
		PaidAt:       testNow.AddDate(0, 0, -daysAgo),
	})
	if err != nil {
		t.Fatalf("HandlePaidOrder failed: %v", err)
	}
	return s
}

func authed[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func expectCode(t *testing.T, err error, want connect.Code) *connect.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Fatalf("code: expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
	return connectErr
}

var (
	adminPrincipal = &models.Principal{UserID: "user-admin", Role: models.RoleAdmin}
	acmePrincipal  = &models.Principal{UserID: "user-acme", Role: models.RoleWholesaler}
	boltPrincipal  = &models.Principal{UserID: "user-bolt", Role: models.RoleWholesaler}
)

func TestListSettlements_RequiresToken(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := env.client.ListSettlements(context.Background(), connect.NewRequest(&ListSettlementsRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)

	_, err = env.client.ListSettlements(context.Background(), authed(&ListSettlementsRequest{}, "not-a-jwt"))
	expectCode(t, err, connect.CodeUnauthenticated)
}

func TestListSettlements_TenantScoped(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	env.paid(t, "a-1", env.acme, 10000, 1)
	env.paid(t, "b-1", env.bolt, 20000, 2)
	env.paid(t, "a-2", env.acme, 30000, 3)

	resp, err := env.client.ListSettlements(context.Background(),
		authed(&ListSettlementsRequest{SortBy: "order_amount", SortOrder: "asc"}, env.token(t, acmePrincipal)))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}

	if resp.Msg.Total != 2 {
		t.Fatalf("total: expected 2, got %d", resp.Msg.Total)
	}
	for _, s := range resp.Msg.Settlements {
		if s.WholesalerID != env.acme.ID {
			t.Errorf("settlement %s belongs to %s, expected only %s", s.ID, s.WholesalerID, env.acme.ID)
		}
	}
	if resp.Msg.Settlements[0].OrderID != "a-1" || resp.Msg.Settlements[1].OrderID != "a-2" {
		t.Errorf("order: expected [a-1 a-2], got [%s %s]", resp.Msg.Settlements[0].OrderID, resp.Msg.Settlements[1].OrderID)
	}
	if resp.Msg.Page != 1 || resp.Msg.PageSize != settlement.DefaultPageSize || resp.Msg.TotalPages != 1 {
		t.Errorf("paging: got page=%d page_size=%d total_pages=%d", resp.Msg.Page, resp.Msg.PageSize, resp.Msg.TotalPages)
	}

	adminResp, err := env.client.ListSettlements(context.Background(),
		authed(&ListSettlementsRequest{}, env.token(t, adminPrincipal)))
	if err != nil {
		t.Fatalf("ListSettlements (admin) failed: %v", err)
	}
	if adminResp.Msg.Total != 3 {
		t.Errorf("admin total: expected 3, got %d", adminResp.Msg.Total)
	}
}

func TestListSettlements_InvalidArguments(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	token := env.token(t, adminPrincipal)
	invalid := []*ListSettlementsRequest{
		{PageSize: 101},
		{SortBy: "paid_at"},
		{Status: "refunded"},
		{PayoutFrom: "2025/01/01"},
	}
	for _, msg := range invalid {
		_, err := env.client.ListSettlements(context.Background(), authed(msg, token))
		expectCode(t, err, connect.CodeInvalidArgument)
	}
}

func TestListSettlements_RoleErrors(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := env.client.ListSettlements(context.Background(),
		authed(&ListSettlementsRequest{}, env.token(t, &models.Principal{UserID: "buyer", Role: models.RoleRetailer})))
	expectCode(t, err, connect.CodePermissionDenied)

	_, err = env.client.ListSettlements(context.Background(),
		authed(&ListSettlementsRequest{}, env.token(t, &models.Principal{UserID: "user-new", Role: models.RoleWholesaler})))
	expectCode(t, err, connect.CodeFailedPrecondition)
}

func TestGetSettlementDetail(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	// payout was yesterday, so it reads as completed
	due := env.paid(t, "order-due", env.acme, 100000, 8)

	resp, err := env.client.GetSettlementDetail(context.Background(),
		authed(&GetSettlementDetailRequest{SettlementID: due.ID}, env.token(t, acmePrincipal)))
	if err != nil {
		t.Fatalf("GetSettlementDetail failed: %v", err)
	}

	got := resp.Msg.Settlement
	if got.Status != "completed" {
		t.Errorf("status: expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(due.ScheduledPayoutAt) {
		t.Errorf("completed_at: expected %v, got %v", due.ScheduledPayoutAt, got.CompletedAt)
	}
	if got.PlatformFee != 5000 || got.WholesalerAmount != 95000 {
		t.Errorf("amounts: expected 5000/95000, got %d/%d", got.PlatformFee, got.WholesalerAmount)
	}
	if resp.Msg.WholesalerName != "Acme Wholesale" {
		t.Errorf("wholesaler_name: expected 'Acme Wholesale', got '%s'", resp.Msg.WholesalerName)
	}
}

func TestGetSettlementDetail_HidesOtherTenants(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	s := env.paid(t, "order-1", env.acme, 10000, 1)
	token := env.token(t, boltPrincipal)

	foreign := expectCode(t, func() error {
		_, err := env.client.GetSettlementDetail(context.Background(), authed(&GetSettlementDetailRequest{SettlementID: s.ID}, token))
		return err
	}(), connect.CodeNotFound)

	missing := expectCode(t, func() error {
		_, err := env.client.GetSettlementDetail(context.Background(), authed(&GetSettlementDetailRequest{SettlementID: "does-not-exist"}, token))
		return err
	}(), connect.CodeNotFound)

	if foreign.Message() != missing.Message() {
		t.Errorf("foreign and missing settlements must be indistinguishable: %q vs %q", foreign.Message(), missing.Message())
	}
}

func TestSetSettlementStatus(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	s := env.paid(t, "order-1", env.acme, 10000, 1)

	// other tenant cannot touch it
	_, err := env.client.SetSettlementStatus(context.Background(),
		authed(&SetSettlementStatusRequest{SettlementID: s.ID, Status: "completed"}, env.token(t, boltPrincipal)))
	expectCode(t, err, connect.CodeNotFound)

	_, err = env.client.SetSettlementStatus(context.Background(),
		authed(&SetSettlementStatusRequest{SettlementID: s.ID, Status: "paid"}, env.token(t, acmePrincipal)))
	expectCode(t, err, connect.CodeInvalidArgument)

	resp, err := env.client.SetSettlementStatus(context.Background(),
		authed(&SetSettlementStatusRequest{SettlementID: s.ID, Status: "completed"}, env.token(t, acmePrincipal)))
	if err != nil {
		t.Fatalf("SetSettlementStatus failed: %v", err)
	}
	if resp.Msg.Settlement.Status != "completed" {
		t.Errorf("status: expected completed, got %s", resp.Msg.Settlement.Status)
	}
	if resp.Msg.Settlement.CompletedAt == nil || !resp.Msg.Settlement.CompletedAt.Equal(testNow) {
		t.Errorf("completed_at: expected %v, got %v", testNow, resp.Msg.Settlement.CompletedAt)
	}

	stats, err := env.client.GetSettlementStats(context.Background(),
		authed(&GetSettlementStatsRequest{}, env.token(t, acmePrincipal)))
	if err != nil {
		t.Fatalf("GetSettlementStats failed: %v", err)
	}
	if stats.Msg.CompletedCount != 1 || stats.Msg.CompletedAmount != 9500 || stats.Msg.PendingCount != 0 {
		t.Errorf("stats: got %+v", stats.Msg)
	}
}

func TestGetSettlementStats(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	env.paid(t, "a-due", env.acme, 10000, 10)    // fee 500, completed
	env.paid(t, "a-pending", env.acme, 1999, 1)  // fee 99, pending
	env.paid(t, "b-pending", env.bolt, 50000, 2) // other tenant

	resp, err := env.client.GetSettlementStats(context.Background(),
		authed(&GetSettlementStatsRequest{}, env.token(t, acmePrincipal)))
	if err != nil {
		t.Fatalf("GetSettlementStats failed: %v", err)
	}

	want := GetSettlementStatsResponse{
		TotalAmount:      11999,
		TotalPlatformFee: 599,
		PendingAmount:    1900,
		PendingCount:     1,
		CompletedAmount:  9500,
		CompletedCount:   1,
	}
	if *resp.Msg != want {
		t.Errorf("stats: expected %+v, got %+v", want, *resp.Msg)
	}
}
