// Command simulate drives concurrent customers at a running api-server so slot
// lock contention and approval traffic can be observed.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maryuh24/lashesstudio/internal/api"
	"github.com/maryuh24/lashesstudio/internal/bookingapi"
	"github.com/maryuh24/lashesstudio/internal/config"
	"github.com/maryuh24/lashesstudio/internal/db"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/pkg/logging"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	ApproveRatio  float64
	CustomerLimit int
	DaysAhead     int
}

type DataPool struct {
	Customers []uuid.UUID
	Artists   []uuid.UUID
	Services  []uuid.UUID
	Admin     uuid.UUID
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	atomic.AddInt64(&om.Total, 1)
	var apiErr *bookingapi.APIError
	switch {
	case err == nil:
		atomic.AddInt64(&om.Success, 1)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, worst time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	pick := func(pct int) time.Duration {
		return latencies[min(len(latencies)*pct/100, len(latencies)-1)]
	}
	return sum / time.Duration(len(latencies)), pick(50), pick(95), latencies[len(latencies)-1]
}

type Simulator struct {
	config  SimConfig
	secret  string
	pool    *DataPool
	client  *bookingapi.Client
	logger  *logging.Logger
	slots   OperationMetrics
	booking OperationMetrics
	approve OperationMetrics
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(baseCfg.LogLevel).With("service", "simulate")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Error("load data pool", "error", err)
		os.Exit(1)
	}
	logger.Info("data pool loaded",
		"customers", len(dataPool.Customers),
		"artists", len(dataPool.Artists),
		"services", len(dataPool.Services),
	)

	sim := &Simulator{
		config: cfg,
		secret: baseCfg.JWTSecret,
		pool:   dataPool,
		client: bookingapi.New(nil, baseCfg.StudioLocation),
		logger: logger,
	}
	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		ApproveRatio:  getFloat("SIM_APPROVE_RATIO", 0.2),
		CustomerLimit: getInt("SIM_CUSTOMER_LIMIT", 500),
		DaysAhead:     getInt("SIM_DAYS_AHEAD", 7),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.DaysAhead <= 0 {
		return fmt.Errorf("SIM_DAYS_AHEAD must be > 0")
	}
	return nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	customers, err := loadIDs(ctx, pool, `SELECT id FROM users WHERE user_type = 'user' LIMIT $1`, cfg.CustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	artists, err := loadIDs(ctx, pool, `SELECT id FROM users WHERE user_type = 'artist'`)
	if err != nil {
		return nil, fmt.Errorf("load artists: %w", err)
	}
	services, err := loadIDs(ctx, pool, `SELECT id FROM services`)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	admins, err := loadIDs(ctx, pool, `SELECT id FROM users WHERE user_type = 'admin' LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}

	if len(customers) == 0 || len(artists) == 0 || len(services) == 0 || len(admins) == 0 {
		return nil, fmt.Errorf("seed data missing, run cmd/seed first")
	}
	return &DataPool{Customers: customers, Artists: artists, Services: services, Admin: admins[0]}, nil
}

// session mints a short lived token the api-server accepts for userID.
func (s *Simulator) session(userID uuid.UUID, role lifecycle.Role) (bookingapi.Session, error) {
	claims := api.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.Duration + time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return bookingapi.Session{}, err
	}
	return bookingapi.Session{BaseURL: s.config.APIBaseURL, Token: token, Role: role}, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation", "duration", s.config.Duration.String(), "workers", s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		if rng.Float64() < s.config.ApproveRatio {
			s.doApprove(ctx, rng)
		} else {
			s.doBooking(ctx, rng)
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	customer := s.pool.Customers[rng.Intn(len(s.pool.Customers))]
	artist := s.pool.Artists[rng.Intn(len(s.pool.Artists))]
	service := s.pool.Services[rng.Intn(len(s.pool.Services))]
	day := time.Now().AddDate(0, 0, 1+rng.Intn(s.config.DaysAhead))

	sess, err := s.session(customer, lifecycle.RoleCustomer)
	if err != nil {
		s.logger.Error("mint token", "error", err)
		return
	}

	start := time.Now()
	open, err := s.client.AvailableSlots(ctx, sess, artist, day)
	s.slots.Record(time.Since(start), err)
	if err != nil || len(open) == 0 {
		return
	}

	start = time.Now()
	_, err = s.client.CreateBooking(ctx, sess, bookingapi.BookingRequest{
		ServiceID:    service,
		LashArtistID: artist,
		BookingDate:  day.Format("2006-01-02"),
		BookingTime:  open[rng.Intn(len(open))].Start,
	})
	if ctx.Err() != nil {
		return
	}
	s.booking.Record(time.Since(start), err)
}

func (s *Simulator) doApprove(ctx context.Context, rng *rand.Rand) {
	sess, err := s.session(s.pool.Admin, lifecycle.RoleAdmin)
	if err != nil {
		s.logger.Error("mint token", "error", err)
		return
	}

	pending, err := s.client.AdminAppointments(ctx, sess, lifecycle.StatusPending, "")
	if len(pending) == 0 {
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("list pending", "error", err)
		}
		return
	}

	target := pending[rng.Intn(len(pending))]
	start := time.Now()
	_, err = s.client.RequestTransition(ctx, sess, target.ID, lifecycle.TransitionApprove)
	if ctx.Err() != nil {
		return
	}
	s.approve.Record(time.Since(start), err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Available slots", &s.slots)
	printOperationReport("Create booking", &s.booking)
	printOperationReport("Approve", &s.approve)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, worst := om.Stats()

	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, pct(conflict))
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, pct(failed))
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), worst.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
