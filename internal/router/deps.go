package router

import (
	"accounting-admin/internal/config"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Deps holds the stores and clients the routes are built from.
type Deps struct {
	Config       *config.Config
	Logger       *logrus.Logger
	BankAccounts repository.BankAccountStore
	CostObjects  repository.CostObjectStore
	Users        repository.UserStore
	Sessions     repository.ImportSessionStore
	Queue        service.TaskQueue
	WebSessions  *session.Store

	closers []io.Closer
}

// NewDeps wires MySQL and Redis backed stores. A nil db or redis client
// selects the in-memory stores seeded with demo data.
func NewDeps(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) (*Deps, error) {
	deps := &Deps{
		Config: cfg,
		Logger: logger,
		WebSessions: session.New(session.Config{
			Expiration:     cfg.JWTAccessExpire,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
	}

	if db != nil {
		deps.BankAccounts = repository.NewBankAccountRepository(db)
		deps.CostObjects = repository.NewCostObjectRepository(db)
		deps.Users = repository.NewUserRepository(db)
	} else {
		logger.Warn("No database connection, using in-memory demo data")
		admin, err := DefaultAdmin(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		deps.BankAccounts = repository.NewMemoryBankAccountStore(repository.SeedBankAccounts())
		deps.CostObjects = repository.NewMemoryCostObjectStore(repository.SeedCostObjects())
		deps.Users = repository.NewMemoryUserStore(admin)
	}

	if redisClient != nil {
		deps.Sessions = repository.NewRedisImportSessionStore(redisClient, cfg.ImportSessionTTL)
	} else {
		logger.Warn("No Redis connection, import sessions are kept in memory")
		memory := repository.NewMemoryImportSessionStore(cfg.ImportSessionTTL)
		deps.Sessions = memory
		deps.closers = append(deps.closers, memory)
	}

	// The worker writes to MySQL, so queueing needs both backends
	if db != nil && redisClient != nil {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
		deps.Queue = client
		deps.closers = append(deps.closers, client)
	}

	return deps, nil
}

// DefaultAdmin is the administrator of the in-memory user store
func DefaultAdmin(password string) (models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return models.User{
		ID:           1,
		Name:         "Administrator",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
	}, nil
}

func (d *Deps) Close() {
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			d.Logger.WithError(err).Warn("Failed to close dependency")
		}
	}
}
