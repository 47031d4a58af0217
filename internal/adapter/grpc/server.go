package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/simaogato/dcaflow-backend/internal/adapter/presenter"
	"github.com/simaogato/dcaflow-backend/internal/adapter/scenario"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/analytics"
	"github.com/simaogato/dcaflow-backend/internal/usecase/simulation"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// maxRefreshTickers bounds one RefreshPrices call
const maxRefreshTickers = 20

// Refresher refreshes stored prices from the provider
type Refresher interface {
	RefreshAll(ctx context.Context, tickers []string) ([]updater.Report, error)
}

// Server implements the SimulationService gRPC server
type Server struct {
	SimulationService *simulation.SimulationService
	Refresher         Refresher
	AnalyticsService  *analytics.AnalyticsService

	now func() time.Time
}

// NewServer creates a new gRPC server instance
func NewServer(
	simulationService *simulation.SimulationService,
	refresher Refresher,
	analyticsService *analytics.AnalyticsService,
) *Server {
	return &Server{
		SimulationService: simulationService,
		Refresher:         refresher,
		AnalyticsService:  analyticsService,
		now:               time.Now,
	}
}

// NewGRPCServer builds a grpc.Server serving srv with token auth, request logging, health and reflection
func NewGRPCServer(srv *Server, token string, log zerolog.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(log),
			AuthInterceptor(token),
		),
	)

	RegisterSimulationServiceServer(grpcServer, srv)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return grpcServer, healthServer
}

// RunSimulation handles the RunSimulation RPC
func (s *Server) RunSimulation(ctx context.Context, req *RunSimulationRequest) (*RunSimulationResponse, error) {
	cfg, err := req.Scenario.ToConfig()
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.SimulationService.Run(ctx, cfg, simulation.RunOptions{RefreshPrices: req.Scenario.RefreshPrices})
	if err != nil {
		return nil, mapError(err)
	}

	return &RunSimulationResponse{
		Result: scenario.NewResponse(result),
		Report: presenter.Present(result, presenter.NewConverter(cfg.Currency), presenter.ParseLanguage(req.Language)),
	}, nil
}

// GetPrice handles the GetPrice RPC
func (s *Server) GetPrice(ctx context.Context, req *GetPriceRequest) (*GetPriceResponse, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, status.Errorf(codes.InvalidArgument, "ticker is required")
	}

	asOf := domain.Day(s.now())
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			return nil, mapError(err)
		}
		asOf = d
	}

	quote, err := s.SimulationService.Quote(ctx, ticker, asOf)
	if err != nil {
		return nil, mapError(err)
	}

	return &GetPriceResponse{
		Ticker:      quote.Ticker,
		AsOf:        domain.FormatDate(quote.AsOf),
		CloseDate:   domain.FormatDate(quote.CloseDate),
		Close:       quote.Close,
		AllTimeHigh: quote.AllTimeHigh,
		Drawdown:    quote.Drawdown.Round(2),
	}, nil
}

// RefreshPrices handles the RefreshPrices RPC
func (s *Server) RefreshPrices(ctx context.Context, req *RefreshPricesRequest) (*RefreshPricesResponse, error) {
	if s.Refresher == nil {
		return nil, status.Errorf(codes.Unimplemented, "price refresh is not configured")
	}

	var tickers []string
	for _, t := range req.Tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "at least one ticker is required")
	}
	if len(tickers) > maxRefreshTickers {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d tickers per refresh", maxRefreshTickers)
	}

	reports, err := s.Refresher.RefreshAll(ctx, tickers)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &RefreshPricesResponse{Reports: make([]RefreshReport, 0, len(reports))}
	for _, r := range reports {
		report := RefreshReport{Ticker: r.Ticker, Mode: string(r.Mode), Added: r.Added}
		if r.Err != nil {
			report.Error = r.Err.Error()
		}
		resp.Reports = append(resp.Reports, report)
	}
	return resp, nil
}

// TopTickers handles the TopTickers RPC
func (s *Server) TopTickers(ctx context.Context, req *TopTickersRequest) (*TopTickersResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 10
	}

	top, err := s.AnalyticsService.TopTickers(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &TopTickersResponse{Tickers: make([]TickerViews, 0, len(top))}
	for _, v := range top {
		resp.Tickers = append(resp.Tickers, TickerViews{Ticker: v.Ticker, ViewCount: v.ViewCount})
	}
	return resp, nil
}

// mapError maps domain errors to gRPC status codes
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrPriceNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err.Error())
}
