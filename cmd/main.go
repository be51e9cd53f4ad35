package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/appblock/internal/api/grpc/context"
	"github.com/dtroode/appblock/internal/api/grpc/router"
	grpcServer "github.com/dtroode/appblock/internal/api/grpc/server"
	httpapi "github.com/dtroode/appblock/internal/api/http"
	"github.com/dtroode/appblock/internal/bridge"
	"github.com/dtroode/appblock/internal/config"
	"github.com/dtroode/appblock/internal/controller"
	"github.com/dtroode/appblock/internal/datastore"
	"github.com/dtroode/appblock/internal/flow"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/mail"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/monitor"
	"github.com/dtroode/appblock/internal/notification"
	"github.com/dtroode/appblock/internal/permission"
	"github.com/dtroode/appblock/internal/repository/sqlstore"
	"github.com/dtroode/appblock/internal/rules"
	"github.com/dtroode/appblock/internal/server"
	"github.com/dtroode/appblock/internal/service"
	storage "github.com/dtroode/appblock/internal/storage/minio"
	"github.com/dtroode/appblock/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const driverMemory = "memory"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)
	if cfg.JWT.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, any local user can mint control tokens with blockctl token")
	}

	backend, closeBackend, err := newPreferenceBackend(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer closeBackend()

	store := datastore.New(backend, logger)
	if err := store.Load(ctx); err != nil {
		logger.Fatal("failed to load preferences", "error", err)
	}

	blockState := service.NewBlockState(store, logger)
	password := service.NewPassword(store, logger)
	email := service.NewEmail(store, newMailSender(cfg.SMTP, logger), logger)
	permissions := service.NewPermission(store, logger)
	tokenService := service.NewTokenService(token.NewJWT(cfg.JWT.Secret, cfg.JWT.ClientTTL), logger)

	hub := bridge.NewHub(logger)
	cascade := permission.NewCascade(permissions, hub.Accessibility(), hub.NotificationPermission(), hub.DeviceAdmin(), logger)

	rulesProvider := newRulesProvider(ctx, cfg, logger)
	notifier, closeNotifier := newNotifier(cfg, hub, logger)
	defer closeNotifier()

	mon := monitor.New(blockState, permissions, hub.Navigator(), notifier, rulesProvider, logger)
	hub.Bind(mon, mon, cascade)

	ctrl := controller.New(
		flow.NewHome(blockState, logger),
		flow.NewSetPassword(password, email, logger),
		flow.NewConfirmPassword(password, email, logger),
		flow.NewRegisterEmail(email, logger),
		blockState,
		email,
		cascade,
		hub,
		cfg.Mail,
		logger,
	)
	defer ctrl.Close()

	var workers sync.WaitGroup
	goWorker := func(f func()) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			f()
		}()
	}

	goWorker(func() { cascade.Run(ctx) })
	goWorker(func() { hub.FollowPrompts(ctx, cascade.Watch(ctx)) })
	goWorker(func() { rulesProvider.Run(ctx, cfg.Rules.RefreshInterval) })
	mon.Start(ctx)
	ctrl.Start(ctx)

	grpcRouter := router.New(ctrl, hub, tokenService, grpcctx.NewManager(), logger)
	servers := []model.Server{
		registerGRPCServer(grpcRouter, net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)),
	}
	if cfg.HTTP.Addr != "" {
		servers = append(servers, httpapi.NewServer(httpapi.NewRouter(ctrl, logger), cfg.HTTP.Addr))
	}

	sl := server.NewSecurityLayer(cfg.GRPC)

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}
	grpcRouter.SetServing(true)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	grpcRouter.SetServing(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}
	wg.Wait()

	<-mon.Done()
	workers.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerGRPCServer(r *router.Router, addr string) *grpcServer.GRPCServer {
	s := r.Register()

	reflection.Register(s)

	return grpcServer.NewGRPCServer(s, addr)
}

func newPreferenceBackend(ctx context.Context, cfg config.Database) (model.PreferenceBackend, func(), error) {
	if cfg.Driver == driverMemory {
		return datastore.NewMemoryBackend(nil), func() {}, nil
	}

	conn, err := sqlstore.NewConnection(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	return sqlstore.NewPreferenceRepository(conn), func() { _ = conn.Close() }, nil
}

// newMailSender falls back to logging when no SMTP account is configured.
func newMailSender(cfg config.SMTP, logger *logger.Logger) model.MailSender {
	if cfg.Username == "" {
		logger.Warn("SMTP account is not configured, emails will only be logged")
		return mail.NewLogSender(logger)
	}

	sender, err := mail.NewSMTPSender(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mail sender", "error", err)
	}
	return sender
}

// newRulesProvider loads rules from MinIO when enabled, otherwise from
// RULES_FILE, falling back to the built-in rules.
func newRulesProvider(ctx context.Context, cfg *config.Config, logger *logger.Logger) *rules.Provider {
	var source rules.Source
	switch {
	case cfg.Storage.Enabled:
		client, err := storage.Connect(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		source = rules.NewObjectSource(client, cfg.Rules.Object)
	case cfg.Rules.File != "":
		source = rules.NewFileSource(cfg.Rules.File)
	}

	provider := rules.NewProvider(source, rules.Default(), logger)
	if err := provider.Refresh(ctx); err != nil {
		logger.Warn("failed to load rules, using built-in rules", "error", err)
	}
	return provider
}

func newNotifier(cfg *config.Config, hub *bridge.Hub, logger *logger.Logger) (model.NotificationService, func()) {
	switch cfg.Notifier {
	case "dbus":
		n, err := notification.NewDBus(cfg.Notification.Title, cfg.Notification.Body, logger)
		if err != nil {
			logger.Warn("failed to connect to session bus, notifications disabled", "error", err)
			return notification.Silent{}, func() {}
		}
		return n, func() { _ = n.Close() }
	case "none":
		return notification.Silent{}, func() {}
	default:
		return hub.Notifier(), func() {}
	}
}
