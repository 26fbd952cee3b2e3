package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/config"
	"github.com/mmynk/settlements/internal/metrics"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/service"
	"github.com/mmynk/settlements/internal/settlement"
)

const systemKey = "router-test-system-key"

func newTestRouter(t *testing.T) (*httptest.Server, *auth.JWTManager, *models.Wholesaler) {
	t.Helper()
	ctx := context.Background()

	store, err := OpenStore(ctx, config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "app.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	wholesaler := &models.Wholesaler{OwnerUserID: "user-acme", Name: "Acme Wholesale"}
	require.NoError(t, store.CreateWholesaler(ctx, wholesaler))

	pipeline, err := settlement.NewPipeline(store, 0.05, 7)
	require.NoError(t, err)

	hash, err := auth.HashSystemKey(systemKey)
	require.NoError(t, err)
	key, err := auth.NewSystemKey(hash)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	jwtManager := auth.NewJWTManager("router-test-secret", time.Hour)
	server := httptest.NewServer(NewRouter(Deps{
		Engine:    settlement.NewEngine(auth.NewGuard(store), store),
		Pipeline:  pipeline,
		JWT:       jwtManager,
		SystemKey: key,
		Registry:  reg,
	}))
	t.Cleanup(server.Close)

	return server, jwtManager, wholesaler
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestRouter_Healthz(t *testing.T) {
	server, _, _ := newTestRouter(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_WebhookThenRPC(t *testing.T) {
	server, jwtManager, wholesaler := newTestRouter(t)
	ctx := context.Background()

	body := `{"order_id":"order-1","wholesaler_id":"` + wholesaler.ID + `","order_amount":10000,"paid_at":"` +
		time.Now().UTC().Format(time.RFC3339) + `"}`
	req, err := http.NewRequest(http.MethodPost, server.URL+"/internal/v1/orders/paid", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("X-System-Key", systemKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token, err := jwtManager.Generate(&models.Principal{UserID: "user-acme", Role: models.RoleWholesaler})
	require.NoError(t, err)

	client := service.NewSettlementServiceClient(http.DefaultClient, server.URL)
	listReq := connect.NewRequest(&service.ListSettlementsRequest{})
	listReq.Header().Set("Authorization", "Bearer "+token)

	list, err := client.ListSettlements(ctx, listReq)
	require.NoError(t, err)
	require.Len(t, list.Msg.Settlements, 1)
	assert.Equal(t, "order-1", list.Msg.Settlements[0].OrderID)
	assert.Equal(t, "pending", list.Msg.Settlements[0].Status)

	metricsResp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	raw, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	out := string(raw)
	assert.True(t, strings.Contains(out, "settlements_created_total"), "missing creation counter")
	assert.True(t, strings.Contains(out, `rpc_duration_seconds_count{code="ok",procedure="/settlements.v1.SettlementService/ListSettlements"}`), "missing RPC histogram")
}
