package listing

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DefaultSQLiteDSN opens a private in-memory database. Listings vanish with
// the process, same as MemoryStore.
const DefaultSQLiteDSN = ":memory:"

// SQLiteStore implements Store on top of SQLite. The sequence number is the
// AUTOINCREMENT row id, so it is never reused even across failed inserts.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the database at dsn and creates the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database, so pin the pool
	// to a single connection that is never recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("dsn", dsn).Msg("sqlite listing store initialized")
	return store, nil
}

func (s *SQLiteStore) init() error {
	listingsQuery := `
	CREATE TABLE IF NOT EXISTS listings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		kind INTEGER NOT NULL,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		contact TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(listingsQuery); err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	photosQuery := `
	CREATE TABLE IF NOT EXISTS listing_photos (
		seq INTEGER NOT NULL,
		position INTEGER NOT NULL,
		blob_path TEXT NOT NULL,
		external_id TEXT NOT NULL,
		PRIMARY KEY (seq, position),
		FOREIGN KEY (seq) REFERENCES listings(seq)
	);
	`
	if _, err := s.db.Exec(photosQuery); err != nil {
		return fmt.Errorf("failed to create listing_photos table: %w", err)
	}

	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return nil
}

// Append inserts the listing and its photos in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, l Listing) (Listing, error) {
	if err := l.Validate(); err != nil {
		return Listing{}, err
	}
	l = l.clone()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO listings (kind, title, price, contact, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		int(l.Kind), l.Title, l.Price, l.Contact, l.UserID, l.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to insert listing: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return Listing{}, fmt.Errorf("failed to read listing sequence: %w", err)
	}

	for i, photo := range l.Photos {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO listing_photos (seq, position, blob_path, external_id) VALUES (?, ?, ?, ?)",
			seq, i, photo.BlobPath, photo.ExternalID,
		)
		if err != nil {
			return Listing{}, fmt.Errorf("failed to insert listing photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Listing{}, fmt.Errorf("failed to commit listing: %w", err)
	}

	l.Sequence = int(seq)
	return l, nil
}

// List returns all listings ordered by sequence.
func (s *SQLiteStore) List(ctx context.Context) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, kind, title, price, contact, user_id, created_at FROM listings ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	index := make(map[int]int)
	for rows.Next() {
		var l Listing
		var kind int
		var createdAt int64
		if err := rows.Scan(&l.Sequence, &kind, &l.Title, &l.Price, &l.Contact, &l.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.Kind = Kind(kind)
		l.CreatedAt = time.Unix(0, createdAt)
		index[l.Sequence] = len(listings)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	rows.Close()

	photoRows, err := s.db.QueryContext(ctx,
		"SELECT seq, blob_path, external_id FROM listing_photos ORDER BY seq, position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing photos: %w", err)
	}
	defer photoRows.Close()

	for photoRows.Next() {
		var seq int
		var photo PhotoRef
		if err := photoRows.Scan(&seq, &photo.BlobPath, &photo.ExternalID); err != nil {
			return nil, fmt.Errorf("failed to scan listing photo: %w", err)
		}
		i, ok := index[seq]
		if !ok {
			continue
		}
		listings[i].Photos = append(listings[i].Photos, photo)
	}
	if err := photoRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing photos: %w", err)
	}

	return listings, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
