package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/accounting"
	"github.com/tillpoint/tillpoint/internal/audit"
	"github.com/tillpoint/tillpoint/internal/auth"
	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/masterdata"
	"github.com/tillpoint/tillpoint/internal/observability"
	"github.com/tillpoint/tillpoint/internal/procurement"
	"github.com/tillpoint/tillpoint/internal/rbac"
	"github.com/tillpoint/tillpoint/internal/reports"
	"github.com/tillpoint/tillpoint/internal/roles"
	"github.com/tillpoint/tillpoint/internal/sales"
	"github.com/tillpoint/tillpoint/internal/shared"
	"github.com/tillpoint/tillpoint/internal/stores"
	"github.com/tillpoint/tillpoint/internal/users"
)

// ModuleDeps carries the infrastructure shared by every domain module.
type ModuleDeps struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	// Reports receives warmup requests after checkouts. Nil disables them.
	Reports sales.ReportNotifier
	// LowStock receives scan requests after stock-reducing corrections.
	LowStock inventory.LowStockScheduler
}

// Modules holds the wired domain services and the bridge registry that
// exposes them.
type Modules struct {
	Sessions    *shared.SessionManager
	Access      *rbac.Service
	Activity    *shared.ActivityLogger
	Idempotency *shared.IdempotencyStore
	Catalog     *masterdata.Catalog
	Inventory   *inventory.Service
	Procurement *procurement.Service
	Sales       *sales.Service
	Accounting  *accounting.Service
	Reports     *reports.Service
	Registry    *bridge.Registry
}

// NewModules builds every service against deps and registers their bridge
// operations.
func NewModules(deps ModuleDeps) *Modules {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &Config{}
	}
	module := func(name string) *slog.Logger {
		return logger.With(slog.String("module", name))
	}

	m := &Modules{
		Sessions:    shared.NewSessionManager(deps.Redis, cfg.SessionSecret, cfg.SessionTTL),
		Access:      rbac.NewService(rbac.NewRepository(deps.Pool)),
		Activity:    shared.NewActivityLogger(deps.Pool),
		Idempotency: shared.NewIdempotencyStore(deps.Pool),
		Registry:    bridge.NewRegistry(),
	}

	authService := auth.NewService(auth.NewRepository(deps.Pool), m.Sessions, m.Activity, module("auth"))
	storeService := stores.NewService(stores.NewRepository(deps.Pool), m.Access, m.Activity, module("stores"))
	userService := users.NewService(users.NewRepository(deps.Pool), m.Activity, module("users"), bcrypt.DefaultCost)
	roleService := roles.NewService(roles.NewRepository(deps.Pool), m.Activity, module("roles"))

	m.Catalog = masterdata.NewCatalog(deps.Pool, m.Activity, m.Access, logger)
	m.Inventory = inventory.NewService(inventory.NewRepository(deps.Pool), m.Activity, deps.Metrics, module("inventory"))
	if deps.LowStock != nil {
		m.Inventory.WithLowStockScans(deps.LowStock)
	}
	m.Procurement = procurement.NewService(procurement.NewRepository(deps.Pool), m.Activity, deps.Metrics)
	m.Sales = sales.NewService(sales.NewRepository(deps.Pool), sales.Deps{
		Idempotency: m.Idempotency,
		Audit:       m.Activity,
		Movements:   deps.Metrics,
		Reports:     deps.Reports,
		Logger:      module("sales"),
	}, sales.ServiceConfig{AllowNegativeStock: cfg.AllowNegativeStock})
	m.Accounting = accounting.NewService(accounting.NewRepository(deps.Pool), m.Activity, module("accounting"))
	m.Reports = reports.NewService(reports.NewRepository(deps.Pool), reports.NewCache(deps.Redis, cfg.ReportCacheTTL), module("reports"))
	auditService := audit.NewService(m.Activity, m.Access)

	auth.NewHandler(module("auth"), authService).Register(m.Registry)
	stores.NewHandler(storeService).Register(m.Registry)
	users.NewHandler(module("users"), userService).Register(m.Registry)
	roles.NewHandler(roleService).Register(m.Registry)
	m.Catalog.Register(m.Registry)
	inventory.NewHandler(m.Inventory, m.Access).Register(m.Registry)
	procurement.NewHandler(module("procurement"), m.Procurement, m.Access).Register(m.Registry)
	sales.NewHandler(module("sales"), m.Sales, m.Access).Register(m.Registry)
	accounting.NewHandler(m.Accounting, m.Access).Register(m.Registry)
	audit.NewHandler(auditService).Register(m.Registry)
	reports.NewHandler(m.Reports, m.Access).Register(m.Registry)
	return m
}

// Bridge returns the HTTP bridge serving the registry.
func (m *Modules) Bridge(logger *slog.Logger, metrics *observability.Metrics) *bridge.Handler {
	var observer bridge.Observer
	if metrics != nil {
		observer = metrics
	}
	return bridge.NewHandler(m.Registry, m.Sessions, observer, logger)
}
