package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settlements/internal/middleware"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/settlement"
)

// SettlementServiceName is the fully-qualified name of the settlement service.
const SettlementServiceName = "settlements.v1.SettlementService"

const (
	ListSettlementsProcedure     = "/" + SettlementServiceName + "/ListSettlements"
	GetSettlementStatsProcedure  = "/" + SettlementServiceName + "/GetSettlementStats"
	GetSettlementDetailProcedure = "/" + SettlementServiceName + "/GetSettlementDetail"
	SetSettlementStatusProcedure = "/" + SettlementServiceName + "/SetSettlementStatus"
)

// SettlementService implements the Connect SettlementService
type SettlementService struct {
	engine *settlement.Engine
}

// NewSettlementService creates a new SettlementService backed by engine.
func NewSettlementService(engine *settlement.Engine) *SettlementService {
	return &SettlementService{engine: engine}
}

// ListSettlements returns one page of the caller's settlements.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	slog.Debug("ListSettlements request received",
		"status", req.Msg.Status,
		"page", req.Msg.Page,
		"page_size", req.Msg.PageSize,
	)

	page, err := s.engine.ListSettlements(ctx, middleware.PrincipalFromContext(ctx), settlement.ListParams{
		Status:       req.Msg.Status,
		PayoutFrom:   req.Msg.PayoutFrom,
		PayoutTo:     req.Msg.PayoutTo,
		OrderID:      req.Msg.OrderID,
		WholesalerID: req.Msg.WholesalerID,
		Page:         req.Msg.Page,
		PageSize:     req.Msg.PageSize,
		SortBy:       req.Msg.SortBy,
		SortOrder:    req.Msg.SortOrder,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListSettlementsResponse{
		Settlements: toSettlements(page.Items),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		Page:        page.Page,
		PageSize:    page.PageSize,
	}), nil
}

// GetSettlementStats returns the caller's settlement summary.
func (s *SettlementService) GetSettlementStats(ctx context.Context, req *connect.Request[GetSettlementStatsRequest]) (*connect.Response[GetSettlementStatsResponse], error) {
	stats, err := s.engine.GetSettlementStats(ctx, middleware.PrincipalFromContext(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toStatsResponse(stats)), nil
}

// GetSettlementDetail returns a single settlement.
func (s *SettlementService) GetSettlementDetail(ctx context.Context, req *connect.Request[GetSettlementDetailRequest]) (*connect.Response[GetSettlementDetailResponse], error) {
	slog.Debug("GetSettlementDetail request received", "settlement_id", req.Msg.SettlementID)

	detail, err := s.engine.GetSettlementDetail(ctx, middleware.PrincipalFromContext(ctx), req.Msg.SettlementID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetSettlementDetailResponse{
		Settlement:     toSettlement(detail.Settlement),
		WholesalerName: detail.WholesalerName,
	}), nil
}

// SetSettlementStatus records a manual status transition.
func (s *SettlementService) SetSettlementStatus(ctx context.Context, req *connect.Request[SetSettlementStatusRequest]) (*connect.Response[SetSettlementStatusResponse], error) {
	slog.Info("SetSettlementStatus request received",
		"settlement_id", req.Msg.SettlementID,
		"status", req.Msg.Status,
	)

	updated, err := s.engine.SetSettlementStatus(ctx,
		middleware.PrincipalFromContext(ctx),
		req.Msg.SettlementID,
		models.SettlementStatus(req.Msg.Status),
	)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SetSettlementStatusResponse{
		Settlement: toSettlement(updated),
	}), nil
}

// NewSettlementServiceHandler builds an HTTP handler serving every
// SettlementService procedure. It returns the path to mount it on.
func NewSettlementServiceHandler(svc *SettlementService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, WithJSON())

	mux := http.NewServeMux()
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, svc.ListSettlements, opts...))
	mux.Handle(GetSettlementStatsProcedure, connect.NewUnaryHandler(GetSettlementStatsProcedure, svc.GetSettlementStats, opts...))
	mux.Handle(GetSettlementDetailProcedure, connect.NewUnaryHandler(GetSettlementDetailProcedure, svc.GetSettlementDetail, opts...))
	mux.Handle(SetSettlementStatusProcedure, connect.NewUnaryHandler(SetSettlementStatusProcedure, svc.SetSettlementStatus, opts...))

	return "/" + SettlementServiceName + "/", mux
}

// SettlementServiceClient is a Connect client for SettlementService.
type SettlementServiceClient struct {
	listSettlements     *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
	getSettlementStats  *connect.Client[GetSettlementStatsRequest, GetSettlementStatsResponse]
	getSettlementDetail *connect.Client[GetSettlementDetailRequest, GetSettlementDetailResponse]
	setSettlementStatus *connect.Client[SetSettlementStatusRequest, SetSettlementStatusResponse]
}

// NewSettlementServiceClient constructs a client for the service at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	opts = append(opts, WithJSON())
	return &SettlementServiceClient{
		listSettlements:     connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+ListSettlementsProcedure, opts...),
		getSettlementStats:  connect.NewClient[GetSettlementStatsRequest, GetSettlementStatsResponse](httpClient, baseURL+GetSettlementStatsProcedure, opts...),
		getSettlementDetail: connect.NewClient[GetSettlementDetailRequest, GetSettlementDetailResponse](httpClient, baseURL+GetSettlementDetailProcedure, opts...),
		setSettlementStatus: connect.NewClient[SetSettlementStatusRequest, SetSettlementStatusResponse](httpClient, baseURL+SetSettlementStatusProcedure, opts...),
	}
}

func (c *SettlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) GetSettlementStats(ctx context.Context, req *connect.Request[GetSettlementStatsRequest]) (*connect.Response[GetSettlementStatsResponse], error) {
	return c.getSettlementStats.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) GetSettlementDetail(ctx context.Context, req *connect.Request[GetSettlementDetailRequest]) (*connect.Response[GetSettlementDetailResponse], error) {
	return c.getSettlementDetail.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) SetSettlementStatus(ctx context.Context, req *connect.Request[SetSettlementStatusRequest]) (*connect.Response[SetSettlementStatusResponse], error) {
	return c.setSettlementStatus.CallUnary(ctx, req)
}
