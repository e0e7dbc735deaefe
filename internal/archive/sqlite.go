package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/models"
)

// SQLiteArchive implements Archive on a local SQLite database.
type SQLiteArchive struct {
	db  *sql.DB
	log *logrus.Entry
}

// NewSQLiteArchive opens (and if needed creates) the archive database.
func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	if path == "" {
		return nil, errors.New("archive path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	a := &SQLiteArchive{db: db, log: logger.WithComponent("archive")}
	if err := a.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return a, nil
}

func (a *SQLiteArchive) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS listings (
		link TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image TEXT,
		price TEXT,
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
	CREATE INDEX IF NOT EXISTS idx_listings_last_seen ON listings(last_seen);
	`

	_, err := a.db.Exec(query)
	return err
}

// Record upserts every scraped listing, keyed by link. The first_seen stamp
// survives updates; last_seen always moves forward.
func (a *SQLiteArchive) Record(ctx context.Context, props []models.Property) error {
	if len(props) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO listings (link, name, image, price, bedrooms, bathrooms, source, first_seen, last_seen)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(link) DO UPDATE SET
		name = excluded.name,
		image = excluded.image,
		price = excluded.price,
		bedrooms = excluded.bedrooms,
		bathrooms = excluded.bathrooms,
		last_seen = excluded.last_seen
	`

	now := time.Now().UnixMilli()
	recorded := 0
	for _, prop := range props {
		if prop.Link == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query,
			prop.Link,
			prop.Name,
			prop.Image,
			prop.Price,
			prop.Bedrooms,
			prop.Bathrooms,
			prop.Source,
			now,
			now,
		); err != nil {
			return fmt.Errorf("upsert listing %s: %w", prop.Link, err)
		}
		recorded++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}

	a.log.Debugf("recorded %d listings", recorded)
	return nil
}

// ListAll returns every archived listing, most recently seen first.
func (a *SQLiteArchive) ListAll(ctx context.Context) ([]Listing, error) {
	query := `
	SELECT link, name, image, price, bedrooms, bathrooms, source, first_seen, last_seen
	FROM listings ORDER BY last_seen DESC, link ASC
	`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(
			&l.Link,
			&l.Name,
			&l.Image,
			&l.Price,
			&l.Bedrooms,
			&l.Bathrooms,
			&l.Source,
			&l.FirstSeen,
			&l.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
