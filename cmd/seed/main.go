package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/maryuh24/lashesstudio/internal/config"
	"github.com/maryuh24/lashesstudio/internal/db"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/pkg/logging"
)

type seedService struct {
	name        string
	description string
	priceCents  int
	durationMin int
}

var studioServices = []seedService{
	{"Classic Full Set", "One extension per natural lash", 12000, 120},
	{"Hybrid Full Set", "Mix of classic and volume fans", 14500, 120},
	{"Volume Full Set", "Handmade fans for a fuller look", 16500, 120},
	{"Classic Refill", "Two to three week maintenance", 6500, 120},
	{"Lash Lift and Tint", "Curl and tint of natural lashes", 8000, 120},
	{"Lash Removal", "Safe removal of extensions", 2500, 120},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel).With("service", "seed")
	logger.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("apply schema", "error", err)
		os.Exit(1)
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	// every seeded account shares SEED_PASSWORD
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "lashes123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash seed password", "error", err)
		os.Exit(1)
	}
	seed := userSeeder{pool: pool, faker: faker, passwordHash: string(hash)}

	steps := []struct {
		name string
		run  func() (int, error)
	}{
		{"admins", func() (int, error) { return seed.users(ctx, lifecycle.RoleAdmin, 1) }},
		{"artists", func() (int, error) { return seed.users(ctx, lifecycle.RoleArtist, 6) }},
		{"customers", func() (int, error) { return seed.users(ctx, lifecycle.RoleCustomer, 500) }},
		{"services", func() (int, error) { return seedServices(ctx, pool) }},
	}
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			logger.Error("seed failed", "step", step.name, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded", "step", step.name, "rows", n)
	}

	logger.Info("seed complete")
}

type userSeeder struct {
	pool         *pgxpool.Pool
	faker        *gofakeit.Faker
	passwordHash string
}

func (s userSeeder) users(ctx context.Context, role lifecycle.Role, count int) (int, error) {
	const batchSize = 250

	inserted := 0
	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return inserted, err
		}

		for i := offset; i < end; i++ {
			name := s.faker.Name()
			username := fmt.Sprintf("%s.%s%d", strings.ToLower(s.faker.Username()), role, i)
			email := fmt.Sprintf("%s@%s", username, s.faker.DomainName())

			tag, err := tx.Exec(ctx, `
				INSERT INTO users (id, name, username, email, user_type, password_hash, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, now(), now())
				ON CONFLICT DO NOTHING
			`, uuid.New(), name, username, email, string(role), s.passwordHash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return inserted, err
			}
			inserted += int(tag.RowsAffected())
		}

		if err := tx.Commit(ctx); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, s := range studioServices {
		tag, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, description, price_cents, duration_min, created_at, updated_at)
			SELECT $1::uuid, $2::text, $3::text, $4::int, $5::int, now(), now()
			WHERE NOT EXISTS (SELECT 1 FROM services WHERE name = $2::text)
		`, uuid.New(), s.name, s.description, s.priceCents, s.durationMin)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return inserted, err
	}
	return inserted, nil
}
