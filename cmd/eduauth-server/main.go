// Command eduauth-server runs a standalone authentication server backed by
// Redis and SMTP delivery.
//
// It wires the authcore engine behind the chi HTTP surface, serves Prometheus
// metrics on /metrics, and uses an in-memory user store. Deployments with a
// real user database should treat this binary as the wiring reference and
// plug their own UserProvider.
//
// Configuration comes from the environment (a .env file is honored):
//
//	LISTEN_ADDR       address for the HTTP listener (default ":8080")
//	REDIS_ADDR        Redis address (default "localhost:6379")
//	REDIS_PASSWORD    Redis password (optional)
//	SMTP_HOST, SMTP_PORT, SMTP_FROM, SMTP_USERNAME, SMTP_PASSWORD,
//	SMTP_TLS_MODE     outbound mail; when SMTP_HOST is empty, OTP codes
//	                  are logged instead of sent
//	ADMIN_EMAIL, ADMIN_USERNAME, ADMIN_PASSWORD
//	                  optional seed account created at startup
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	authcore "github.com/lernhub/authcore"
	"github.com/lernhub/authcore/httpapi"
	"github.com/lernhub/authcore/metrics/export/prometheus"
	"github.com/lernhub/authcore/notify"
)

func main() {
	cfg := authcore.ConfigFromEnv()
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("redis ping %s: %v", redisAddr, err)
	}

	var notifier authcore.Notifier
	if cfg.SMTP.Host != "" {
		sender := notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		sender.TLSMode = cfg.SMTP.TLSMode
		notifier = sender
	} else {
		log.Print("SMTP_HOST not set, OTP codes will be logged instead of mailed")
		notifier = logNotifier{}
	}

	provider := newMemoryProvider()

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(provider).
		WithNotifier(notifier).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		log.Fatalf("engine build: %v", err)
	}
	defer engine.Close()

	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		if err := seedAdmin(engine, provider, email); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	exporter := prometheus.NewPrometheusExporter(engine)

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(engine).Router())
	mux.Handle("/metrics", exporter.Handler())

	addr := envOr("LISTEN_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedAdmin creates the bootstrap admin account directly through the
// provider so the server has at least one login on a fresh store.
func seedAdmin(engine *authcore.Engine, provider *memoryProvider, email string) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return errors.New("ADMIN_PASSWORD required when ADMIN_EMAIL is set")
	}

	hash, err := engine.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = provider.CreateUser(context.Background(), authcore.CreateUserInput{
		Email:        email,
		Username:     envOr("ADMIN_USERNAME", "admin"),
		PasswordHash: hash,
		Role:         authcore.RoleAdmin,
		Active:       true,
	})
	if errors.Is(err, authcore.ErrProviderDuplicate) {
		return nil
	}
	return err
}

// logNotifier prints OTP mail to the process log. Development fallback when
// no SMTP host is configured.
type logNotifier struct{}

func (logNotifier) Send(_ context.Context, to, subject, body string) error {
	log.Printf("mail to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// memoryProvider is the in-memory UserProvider backing this binary. State is
// lost on restart.
type memoryProvider struct {
	mu         sync.RWMutex
	byID       map[string]authcore.UserRecord
	byEmail    map[string]string
	byUsername map[string]string
	nextID     int
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{
		byID:       make(map[string]authcore.UserRecord),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (p *memoryProvider) GetUserByIdentifier(identifier string) (authcore.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if id, ok := p.byEmail[identifier]; ok {
		return p.byID[id], nil
	}
	if id, ok := p.byUsername[identifier]; ok {
		return p.byID[id], nil
	}
	return authcore.UserRecord{}, authcore.ErrUserNotFound
}

func (p *memoryProvider) GetUserByEmail(email string) (authcore.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.byEmail[email]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return p.byID[id], nil
}

func (p *memoryProvider) GetUserByID(userID string) (authcore.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	u, ok := p.byID[userID]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return u, nil
}

func (p *memoryProvider) CreateUser(_ context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byEmail[input.Email]; ok {
		return authcore.UserRecord{}, authcore.ErrProviderDuplicate
	}
	if _, ok := p.byUsername[input.Username]; ok {
		return authcore.UserRecord{}, authcore.ErrProviderDuplicate
	}

	p.nextID++
	u := authcore.UserRecord{
		UserID:             "user-" + strconv.Itoa(p.nextID),
		Email:              input.Email,
		Username:           input.Username,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		DateOfBirth:        input.DateOfBirth,
		Gender:             input.Gender,
		Phone:              input.Phone,
		PasswordHash:       input.PasswordHash,
		Role:               input.Role,
		Active:             input.Active,
		MustChangePassword: input.MustChangePassword,
	}
	p.byID[u.UserID] = u
	p.byEmail[u.Email] = u.UserID
	p.byUsername[u.Username] = u.UserID
	return u, nil
}

func (p *memoryProvider) UpdatePasswordHash(userID, newHash string, clearMustChangePassword bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}
	u.PasswordHash = newHash
	if clearMustChangePassword {
		u.MustChangePassword = false
	}
	p.byID[userID] = u
	return nil
}

func (p *memoryProvider) UpdateMFAVerifiedAt(_ context.Context, userID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}
	t := at
	u.MFALastVerifiedAt = &t
	p.byID[userID] = u
	return nil
}
