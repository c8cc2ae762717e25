package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carebridge/carebridge/internal/config"
	"github.com/carebridge/carebridge/internal/domain/doctor"
	"github.com/carebridge/carebridge/internal/domain/family"
	"github.com/carebridge/carebridge/internal/domain/identity"
	"github.com/carebridge/carebridge/internal/domain/patient"
	"github.com/carebridge/carebridge/internal/domain/prescription"
	"github.com/carebridge/carebridge/internal/domain/records"
	"github.com/carebridge/carebridge/internal/domain/riskmodel"
	"github.com/carebridge/carebridge/internal/domain/symptom"
	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/internal/platform/db"
	"github.com/carebridge/carebridge/internal/platform/docstore"
	"github.com/carebridge/carebridge/internal/platform/hipaa"
	"github.com/carebridge/carebridge/internal/platform/middleware"
	"github.com/carebridge/carebridge/internal/platform/openapi"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "carebridge-server",
		Short: "CareBridge healthcare records API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending Postgres migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run user store migrations (Postgres)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openMigrationPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewEmbeddedMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openMigrationPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewEmbeddedMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func openMigrationPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.UserStoreDriver() != "postgres" {
		return nil, fmt.Errorf("migrations apply to Postgres only; the SQLite store creates its schema on open")
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a list of symptoms and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			symptoms, _ := cmd.Flags().GetStringArray("symptom")
			tablePath, _ := cmd.Flags().GetString("table")
			engine, err := loadEngine(tablePath)
			if err != nil {
				return err
			}
			return writeAnalysis(cmd.OutOrStdout(), engine, append(symptoms, args...))
		},
	}
	cmd.Flags().StringArrayP("symptom", "s", nil, "Reported symptom (repeatable)")
	cmd.Flags().String("table", os.Getenv("SYMPTOM_TABLE_PATH"), "YAML weight table (defaults to the built-in table)")
	return cmd
}

func writeAnalysis(w io.Writer, engine *symptom.Engine, symptoms []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(engine.Analyze(symptoms))
}

func loadEngine(path string) (*symptom.Engine, error) {
	if path == "" {
		return symptom.DefaultEngine(), nil
	}
	engine, err := symptom.LoadEngine(path)
	if err != nil {
		return nil, fmt.Errorf("load symptom table: %w", err)
	}
	return engine, nil
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func newFieldCipher(cfg *config.Config) (*hipaa.FieldCipher, error) {
	if cfg.PHIKey == "" {
		return nil, nil
	}
	key, err := hipaa.ParseKey(cfg.PHIKey)
	if err != nil {
		return nil, err
	}
	return hipaa.NewFieldCipher(key)
}

// userStore is the relational store behind identity, Postgres or SQLite.
type userStore struct {
	repo  identity.UserRepository
	pool  *pgxpool.Pool
	check db.Check
	close func()
}

func openUserStore(ctx context.Context, cfg *config.Config, migrate bool, logger zerolog.Logger) (*userStore, error) {
	if cfg.UserStoreDriver() == "sqlite" {
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath()).Msg("opened sqlite user store")
		return &userStore{
			repo:  identity.NewUserRepoSQLite(sqlDB),
			check: db.Check{Name: "sqlite", Ping: sqlDB.PingContext},
			close: func() { _ = sqlDB.Close() },
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	if migrate {
		n, err := db.NewEmbeddedMigrator(pool).Up(ctx)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}
	logger.Info().Msg("connected to postgres")
	return &userStore{
		repo:  identity.NewUserRepoPG(pool),
		pool:  pool,
		check: db.Check{Name: "postgres", Ping: pool.Ping},
		close: pool.Close,
	}, nil
}

// revocationStore picks Redis when configured, otherwise an in-process map.
func revocationStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.RevocationStore, *db.Check, func(), error) {
	if cfg.RedisURL == "" {
		mem := auth.NewMemoryRevocationStore(5 * time.Minute)
		logger.Warn().Msg("REDIS_URL not set; revoked tokens are kept in memory")
		return mem, nil, mem.Close, nil
	}
	rs, err := auth.NewRedisRevocationStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info().Msg("connected to redis")
	return rs, &db.Check{Name: "redis", Ping: rs.Ping}, func() { _ = rs.Close() }, nil
}

// services bundles everything the HTTP layer mounts.
type services struct {
	tokens        *auth.TokenIssuer
	revoked       auth.RevocationStore
	identity      *identity.Service
	patients      *patient.Service
	doctors       *doctor.Service
	family        *family.Service
	prescriptions *prescription.Service
	records       *records.Service
	symptoms      *symptom.Service
	risk          riskmodel.Model
}

func newServices(users identity.UserRepository, mongo *docstore.Store, engine *symptom.Engine, tokens *auth.TokenIssuer, revoked auth.RevocationStore, cipher *hipaa.FieldCipher) services {
	identitySvc := identity.NewService(users, tokens, revoked)
	familySvc := family.NewService(family.NewLinkRepoMongo(mongo), identitySvc)
	return services{
		tokens:        tokens,
		revoked:       revoked,
		identity:      identitySvc,
		patients:      patient.NewService(patient.NewProfileRepoMongo(mongo), cipher),
		doctors:       doctor.NewService(doctor.NewProfileRepoMongo(mongo)),
		family:        familySvc,
		prescriptions: prescription.NewService(prescription.NewRepoMongo(mongo), identitySvc, familySvc, cipher),
		records:       records.NewService(records.NewRepoMongo(mongo), cipher),
		symptoms:      symptom.NewService(engine, symptom.NewRecordRepoMongo(mongo)),
		risk:          riskmodel.Prototype,
	}
}

// newServer builds the echo instance with global middleware and every route.
func newServer(cfg *config.Config, logger zerolog.Logger, svc services, health echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(cfg)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	authn := auth.JWTMiddleware(svc.tokens, svc.revoked, logger)
	audit := middleware.Audit(logger)

	limitCfg := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	if limitCfg.RequestsPerSecond <= 0 || limitCfg.BurstSize <= 0 {
		limitCfg = middleware.AuthRateLimitConfig()
	}

	e.GET("/health", health)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"name": "CareBridge API", "version": version})
	})

	identity.NewHandler(svc.identity).RegisterRoutes(e, authn, middleware.RateLimit(limitCfg))
	patient.NewHandler(svc.patients).RegisterRoutes(e, authn, audit)
	doctor.NewHandler(svc.doctors).RegisterRoutes(e, authn)
	family.NewHandler(svc.family).RegisterRoutes(e, authn, audit)
	prescription.NewHandler(svc.prescriptions).RegisterRoutes(e, authn, audit)
	records.NewHandler(svc.records).RegisterRoutes(e, authn, audit)
	symptom.NewHandler(svc.symptoms).RegisterRoutes(e, authn)
	riskmodel.NewHandler(svc.risk).RegisterRoutes(e)

	openapi.NewGenerator("CareBridge API", version, e.Routes,
		"/", "/health", "/auth/register", "/auth/login", "/symptomchecker", "/predict/risk",
	).RegisterRoutes(e)

	return e
}

// ipExtractor trusts X-Forwarded-For only from TRUSTED_PROXIES; without any,
// the socket address identifies the client.
func ipExtractor(cfg *config.Config) echo.IPExtractor {
	ranges := cfg.TrustedProxyRanges()
	if len(ranges) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func runServer(migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger("", os.Stderr)
		l.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger := newLogger(cfg.Env, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := openUserStore(ctx, cfg, migrate, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open user store")
		return err
	}
	defer users.close()

	mongo, err := docstore.Connect(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to mongodb")
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(closeCtx)
	}()
	if err := mongo.EnsureIndexes(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to create indexes")
		return err
	}
	logger.Info().Str("database", cfg.DatabaseName).Msg("connected to mongodb")

	revoked, redisCheck, closeRevoked, err := revocationStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return err
	}
	defer closeRevoked()

	cipher, err := newFieldCipher(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("invalid PHI_ENCRYPTION_KEY")
		return err
	}
	if !cipher.Enabled() {
		logger.Warn().Msg("PHI_ENCRYPTION_KEY not set; PHI fields are stored in plaintext")
	}

	engine, err := loadEngine(cfg.SymptomTablePath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load symptom table")
		return err
	}
	logger.Info().Int("conditions", engine.Table().Len()).Msg("symptom engine ready")

	tokens, err := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenTTL())
	if err != nil {
		return err
	}

	checks := []db.Check{users.check, {Name: "mongodb", Ping: mongo.Ping}}
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}
	svc := newServices(users.repo, mongo, engine, tokens, revoked, cipher)
	e := newServer(cfg, logger, svc, db.HealthHandler(users.pool, checks...))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
