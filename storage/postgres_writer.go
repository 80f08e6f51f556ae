package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"art-arbitrage/models"
)

// PostgresWriter persists valuated listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS valuated_listings (
			id              SERIAL PRIMARY KEY,
			source          VARCHAR(50) NOT NULL,
			category        VARCHAR(50) NOT NULL,
			title           TEXT        NOT NULL,
			artist          TEXT        NOT NULL DEFAULT '',
			asking_price    BIGINT      NOT NULL DEFAULT 0,
			estimated_value BIGINT      NOT NULL DEFAULT 0,
			profit          BIGINT      NOT NULL DEFAULT 0,
			profit_margin   INT         NOT NULL DEFAULT 0,
			risk            VARCHAR(10) NOT NULL,
			confidence      NUMERIC(4,2) NOT NULL DEFAULT 0,
			trend           VARCHAR(12) NOT NULL,
			recommendation  VARCHAR(10) NOT NULL,
			valued_by_ai    BOOLEAN     NOT NULL DEFAULT FALSE,
			listing_url     TEXT        NOT NULL DEFAULT '',
			image_url       TEXT        NOT NULL DEFAULT '',
			description     TEXT        NOT NULL DEFAULT '',
			scraped_at      TIMESTAMPTZ NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_valuated_margin ON valuated_listings(profit_margin);
		CREATE INDEX IF NOT EXISTS idx_valuated_source ON valuated_listings(source);
		CREATE INDEX IF NOT EXISTS idx_valuated_reco   ON valuated_listings(recommendation);
	`)
	return err
}

// Write batch-inserts a scan's valuated listings.
func (pw *PostgresWriter) Write(listings []*models.ValuatedListing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.ValuatedListing) error {
	const cols = 17
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			string(l.Source), string(l.Category), l.Title, l.Artist,
			l.AskingPrice, l.EstimatedValue, l.Profit, l.ProfitMargin,
			string(l.Risk), l.Confidence, string(l.Trend), string(l.Recommendation),
			l.ValuedByAI, l.ListingURL, l.ImageURL, l.Description, l.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO valuated_listings (
			source, category, title, artist,
			asking_price, estimated_value, profit, profit_margin,
			risk, confidence, trend, recommendation,
			valued_by_ai, listing_url, image_url, description, scraped_at
		)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves stored valuated listings, best margins first.
func (pw *PostgresWriter) FetchAll() ([]*models.ValuatedListing, error) {
	rows, err := pw.db.Query(`
		SELECT source, category, title, artist,
		       asking_price, estimated_value, profit, profit_margin,
		       risk, confidence, trend, recommendation,
		       valued_by_ai, listing_url, image_url, description, scraped_at
		FROM valuated_listings
		ORDER BY profit_margin DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.ValuatedListing
	for rows.Next() {
		l := &models.ValuatedListing{}
		var src, cat, risk, trend, reco string
		if err := rows.Scan(
			&src, &cat, &l.Title, &l.Artist,
			&l.AskingPrice, &l.EstimatedValue, &l.Profit, &l.ProfitMargin,
			&risk, &l.Confidence, &trend, &reco,
			&l.ValuedByAI, &l.ListingURL, &l.ImageURL, &l.Description, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.Source = models.Source(src)
		l.Category = models.Category(cat)
		l.Risk = models.RiskLevel(risk)
		l.Trend = models.MarketTrend(trend)
		l.Recommendation = models.Recommendation(reco)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
