package container

import (
	"database/sql"
	"net/http"

	"siap/internal/approvals"
	"siap/internal/core/config"
	"siap/internal/integrations/hris"
	"siap/internal/inventory/assets"
	"siap/internal/inventory/importer"
	"siap/internal/inventory/maintenance"
	"siap/internal/inventory/movements"
	"siap/internal/inventory/opname"
	"siap/internal/locations"
	"siap/internal/middleware"
	"siap/internal/notifications"
	"siap/internal/rate_limiter"
	"siap/internal/reports"
	"siap/internal/repository"
	"siap/internal/requests"
	"siap/internal/users"
	"siap/pkg/auditlog"
	"siap/pkg/security"

	"go.uber.org/zap"
)

const version = "1.0.0"

type Container struct {
	Repository *repository.Repository
	AuditLog   *auditlog.Auditlog
	Notifier   *notifications.Notifier
	Tokens     *security.TokenManager
	Users      *users.UsersRepository

	MovementService *movements.Service
	Importer        *importer.Importer
	HRISSync        *hris.SyncService

	HealthCheck        *middleware.HealthCheck
	LoginHandler       *security.LoginHandler
	UserHandler        *users.UsersHandler
	LocationHandler    *locations.LocationHandler
	AssetHandler       *assets.AssetHandler
	MovementsHandler   *movements.MovementsHandler
	ImportHandler      *importer.ImportHandler
	RequestsHandler    *requests.RequestsHandler
	OpnameHandler      *opname.OpnameHandler
	MaintenanceHandler *maintenance.MaintenanceHandler
	ReportsHandler     *reports.ReportsHandler
	HRISHandler        *hris.HRISHandler
}

func NewAppContainer(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditLog := auditlog.NewAuditLog(repo, logger)
	notifier := notifications.NewNotifier(newDispatcher(cfg, logger), logger, cfg.NotificationTimeout)

	userRepo := users.NewRepository(repo)
	assetRepo := assets.NewRepository(repo)
	ledgerRepo := movements.NewLedgerRepository(repo)
	approvalRepo := approvals.NewRepository(repo)
	requestRepo := requests.NewRepository(repo)
	opnameRepo := opname.NewRepository(repo)
	maintenanceRepo := maintenance.NewRepository(repo)
	locationRepo := locations.NewLocationRepository(repo)

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	loginLimiter := rate_limiter.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)

	movementService := movements.NewService(repo, assetRepo, ledgerRepo, userRepo, auditLog, logger)
	requestService := requests.NewService(repo, requestRepo, approvalRepo, approvals.NewPolicy(approvalRepo), movementService, notifier, logger)
	opnameService := opname.NewService(repo, opnameRepo, assetRepo, auditLog, logger)
	maintenanceService := maintenance.NewService(repo, maintenanceRepo, assetRepo, auditLog, logger)
	assetImporter := importer.NewImporter(movementService, logger)
	hrisSync := hris.NewSyncService(userRepo, newDirectorySource(cfg), logger)

	return &Container{
		Repository: repo,
		AuditLog:   auditLog,
		Notifier:   notifier,
		Tokens:     tokens,
		Users:      userRepo,

		MovementService: movementService,
		Importer:        assetImporter,
		HRISSync:        hrisSync,

		HealthCheck:        middleware.NewHealthCheck(db, version),
		LoginHandler:       security.NewLoginHandler(userRepo, tokens, loginLimiter),
		UserHandler:        users.NewHandler(userRepo, logger),
		LocationHandler:    locations.NewLocationHandler(locationRepo),
		AssetHandler:       assets.NewAssetHandler(assetRepo, repo),
		MovementsHandler:   movements.NewHandler(movementService),
		ImportHandler:      importer.NewHandler(assetImporter),
		RequestsHandler:    requests.NewHandler(requestService),
		OpnameHandler:      opname.NewHandler(opnameService),
		MaintenanceHandler: maintenance.NewHandler(maintenanceService),
		ReportsHandler:     reports.NewHandler(reports.NewService(reports.NewRepository(repo))),
		HRISHandler:        hris.NewHRISHandler(hrisSync),
	}
}

func newDispatcher(cfg *config.Config, logger *zap.Logger) notifications.Dispatcher {
	logDispatcher := notifications.NewLogDispatcher(logger)
	if cfg.NotificationWebhookURL == "" {
		return logDispatcher
	}
	client := &http.Client{Timeout: cfg.NotificationTimeout}
	return notifications.MultiDispatcher{logDispatcher, notifications.NewWebhookDispatcher(cfg.NotificationWebhookURL, client)}
}

// newDirectorySource prefers the HR API and falls back to an exported file.
func newDirectorySource(cfg *config.Config) hris.Source {
	if cfg.HRISBaseURL != "" {
		return hris.NewClient(cfg.HRISBaseURL, cfg.HRISToken, &http.Client{Timeout: cfg.NotificationTimeout})
	}
	return hris.FileSource{Path: cfg.HRISFile}
}
