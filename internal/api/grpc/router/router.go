package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/appblock/internal/api/grpc/handler"
	"github.com/dtroode/appblock/internal/api/grpc/middleware"
	"github.com/dtroode/appblock/internal/api/grpc/rpc"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// Router builds the gRPC server with the control and bridge services.
type Router struct {
	controlService handler.ControlService
	bridgeHub      handler.BridgeHub
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	logger         *logger.Logger

	health *health.Server
}

// New creates new gRPC Router instance.
func New(
	controlService handler.ControlService,
	bridgeHub handler.BridgeHub,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		controlService: controlService,
		bridgeHub:      bridgeHub,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
		health:         health.NewServer(),
	}
}

// authRequired matches every method except the standard health service.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// Register registers all gRPC services and middleware.
//
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	recoverer := recovery.WithRecoveryHandlerContext(middleware.NewRecovery(r.logger).HandlePanic)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoverer),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recoverer),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)
	r.registerControlRoutes(s)
	r.registerBridgeRoutes(s)
	healthpb.RegisterHealthServer(s, r.health)

	return s
}

// SetServing flips the health status of both services.
func (r *Router) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	r.health.SetServingStatus("", st)
	r.health.SetServingStatus(rpc.ControlServiceName, st)
	r.health.SetServingStatus(rpc.BridgeServiceName, st)
}

func (r *Router) registerControlRoutes(server *grpc.Server) {
	controlHandler := handler.NewControl(r.controlService, r.contextManager, r.logger)
	rpc.RegisterControlServer(server, controlHandler)
}

func (r *Router) registerBridgeRoutes(server *grpc.Server) {
	bridgeHandler := handler.NewBridge(r.bridgeHub, r.logger)
	rpc.RegisterBridgeServer(server, bridgeHandler)
}
