// Command catalog-import loads supplier product feeds into the catalog.
// Feeds are gzip-compressed NDJSON files, one product per line. Files are
// parsed concurrently; writes are deduplicated across files with a bloom
// filter so overlapping feeds do not hammer the database with repeated
// upserts. A rare false positive only skips a product until the next run.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/breccia/storefront/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

type feedProduct struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Image              string          `json:"image"`
	Category           string          `json:"category"`
	Colors             []string        `json:"colors"`
	InStock            bool            `json:"inStock"`
}

const upsertProductSQL = `INSERT INTO products
	(id, name, price, discount_percentage, image_url, category, colors, in_stock)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		discount_percentage = EXCLUDED.discount_percentage,
		image_url = EXCLUDED.image_url,
		category = EXCLUDED.category,
		colors = EXCLUDED.colors,
		in_stock = EXCLUDED.in_stock`

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing feed *.ndjson.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.ndjson.gz"))
	if err != nil {
		return errors.Wrap(err, "list feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.ndjson.gz files in %s", dataDir)
	}

	slog.Info("parsing feeds", slog.Int("files", len(files)))

	batches, err := parseFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeProducts(ctx, pool, batches)
}

// parseFeeds reads and decodes every feed concurrently, one goroutine per
// file. Malformed lines abort the import: a half-loaded catalog is worse
// than a failed run.
func parseFeeds(ctx context.Context, files []string) ([][]feedProduct, error) {
	batches := make([][]feedProduct, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			products, err := parseFeedFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}
			slog.Info("feed parsed", slog.String("file", path), slog.Int("products", len(products)))
			batches[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func parseFeedFile(ctx context.Context, path string) ([]feedProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var (
		products []feedProduct
		line     int
	)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var p feedProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if _, err := uuid.Parse(p.ID); err != nil {
			return nil, errors.Wrapf(err, "line %d: product id %q", line, p.ID)
		}
		if p.Name == "" || p.Category == "" {
			return nil, errors.Errorf("line %d: product %s misses name or category", line, p.ID)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return products, nil
}

// writeProducts upserts parsed products, skipping ids already written in
// this run. Later feeds lose to earlier ones on overlap.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, batches [][]feedProduct) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var written, skipped int
	for _, batch := range batches {
		for _, p := range batch {
			if seen.TestString(p.ID) {
				skipped++
				continue
			}
			seen.AddString(p.ID)

			if _, err := pool.Exec(ctx, upsertProductSQL,
				p.ID, p.Name, p.Price, p.DiscountPercentage,
				p.Image, p.Category, p.Colors, p.InStock,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}

			written++
			if written%progressEvery == 0 {
				slog.Info("write progress", slog.Int("written", written))
			}
		}
	}

	slog.Info("catalog written", slog.Int("written", written), slog.Int("skipped_duplicates", skipped))
	return nil
}
