// Package reportstore persists denormalized monthly report snapshots in a
// SQLite side-store, separate from the primary database. Snapshots are a
// regenerable cache optimized for historical reads: they may go stale until
// the next explicit generation call, and the only write is an atomic
// insert-or-replace keyed by (user_id, month).
package reportstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no snapshot exists for (owner, month).
var ErrNotFound = errors.New("report snapshot not found")

// OverBudgetCategory is one exceeded budget recorded in a snapshot.
type OverBudgetCategory struct {
	Category string  `json:"category"`
	Budget   float64 `json:"budget"`
	Spent    float64 `json:"spent"`
	Overage  float64 `json:"overage"`
}

// Snapshot is one stored monthly report row.
type Snapshot struct {
	ID                int64                `json:"id"`
	UserID            uint                 `json:"user_id"`
	Month             string               `json:"month"`
	TotalSpent        float64              `json:"total_spent"`
	TopCategory       *string              `json:"top_category"`
	TopCategoryAmount float64              `json:"top_category_amount"`
	OverBudgetEntries []OverBudgetCategory `json:"overbudget_categories"`
	CreatedAt         time.Time            `json:"created_at"`
}

// Store is the SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at dbPath and runs
// its migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create report db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping report database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes the snapshot with insert-or-replace semantics keyed by
// (user_id, month). A regenerated snapshot fully overwrites the previous
// one in a single statement; concurrent regenerations are last-writer-wins,
// which is acceptable for a derived cache.
func (s *Store) Save(snap Snapshot) error {
	entries := snap.OverBudgetEntries
	if entries == nil {
		entries = []OverBudgetCategory{}
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode overbudget categories: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO monthly_reports
			(user_id, month, total_spent, top_category, top_category_amount, overbudget_categories, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, month) DO UPDATE SET
			total_spent = excluded.total_spent,
			top_category = excluded.top_category,
			top_category_amount = excluded.top_category_amount,
			overbudget_categories = excluded.overbudget_categories,
			created_at = excluded.created_at`,
		strconv.FormatUint(uint64(snap.UserID), 10),
		snap.Month,
		snap.TotalSpent,
		snap.TopCategory,
		snap.TopCategoryAmount,
		string(encoded),
	)
	if err != nil {
		return fmt.Errorf("save report snapshot: %w", err)
	}
	return nil
}

// Get loads the snapshot for (userID, month), ErrNotFound when absent.
func (s *Store) Get(userID uint, month string) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, month, total_spent, top_category, top_category_amount, overbudget_categories, created_at
		FROM monthly_reports
		WHERE user_id = ? AND month = ?`,
		strconv.FormatUint(uint64(userID), 10), month)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load report snapshot: %w", err)
	}
	return snap, nil
}

// List returns all snapshots for the owner, newest month first.
func (s *Store) List(userID uint) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, month, total_spent, top_category, top_category_amount, overbudget_categories, created_at
		FROM monthly_reports
		WHERE user_id = ?
		ORDER BY month DESC`,
		strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		return nil, fmt.Errorf("list report snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list report snapshots: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (*Snapshot, error) {
	var (
		snap      Snapshot
		ownerID   string
		top       sql.NullString
		encoded   string
		createdAt string
	)
	if err := r.Scan(&snap.ID, &ownerID, &snap.Month, &snap.TotalSpent, &top, &snap.TopCategoryAmount, &encoded, &createdAt); err != nil {
		return nil, err
	}

	id64, err := strconv.ParseUint(ownerID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("malformed user_id %q: %w", ownerID, err)
	}
	snap.UserID = uint(id64)

	if top.Valid {
		snap.TopCategory = &top.String
	}

	snap.OverBudgetEntries = make([]OverBudgetCategory, 0)
	if encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &snap.OverBudgetEntries); err != nil {
			return nil, fmt.Errorf("decode overbudget categories: %w", err)
		}
	}

	// SQLite stores CURRENT_TIMESTAMP as "2006-01-02 15:04:05" in UTC
	if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		snap.CreatedAt = ts
	} else if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		snap.CreatedAt = ts
	}

	return &snap, nil
}
