// Command seed-db loads a product catalog and an admin account from a JSON
// seed file (plain or gzip-compressed) into PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/minishop/internal/auth"
	"github.com/xenking/minishop/internal/domain/product"
	"github.com/xenking/minishop/internal/domain/user"
	"github.com/xenking/minishop/internal/storage/postgres"
)

// insertWorkers bounds concurrent product inserts.
const insertWorkers = 8

type seedFile struct {
	Admin    *adminSeed    `json:"admin"`
	Products []productSeed `json:"products"`
}

type adminSeed struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type productSeed struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    *bool           `json:"isActive"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/catalog.json", "path to seed JSON file (.json or .json.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	seed, err := readSeed(seedPath)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if seed.Admin != nil {
		if err := seedAdmin(ctx, pool, seed.Admin); err != nil {
			return err
		}
	}
	if err := seedProducts(ctx, pool, seed.Products); err != nil {
		return err
	}

	slog.Info("seed complete",
		slog.Int("products", len(seed.Products)),
		slog.Bool("admin", seed.Admin != nil),
	)
	return nil
}

// readSeed reads and decodes the seed file, transparently decompressing
// gzip input.
func readSeed(path string) (*seedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, errors.Wrap(err, "decode seed file")
	}
	return &seed, nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, in *adminSeed) error {
	users := postgres.NewUserRepository(pool)

	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		slog.Info("admin already exists, skipping", slog.String("email", in.Email))
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "check admin")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         user.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return errors.Wrap(err, "create admin")
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, seeds []productSeed) error {
	products := postgres.NewProductRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(insertWorkers)

	for _, s := range seeds {
		g.Go(func() error {
			active := true
			if s.IsActive != nil {
				active = *s.IsActive
			}
			now := time.Now()
			p := &product.Product{
				ID:          uuid.New().String(),
				Name:        s.Name,
				Description: s.Description,
				Category:    s.Category,
				Price:       s.Price,
				Stock:       s.Stock,
				IsActive:    active,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := products.Create(ctx, p); err != nil {
				return errors.Wrapf(err, "seed product %q", s.Name)
			}
			return nil
		})
	}
	return g.Wait()
}
