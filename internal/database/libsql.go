package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS graph_records (
		seq INTEGER PRIMARY KEY,
		record TEXT NOT NULL
	)`,
}

// LibSQLStore keeps the same record stream as FileStore, one record per row
// of graph_records ordered by seq.
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens dbURL (file: or remote) and ensures the schema exists.
func NewLibSQLStore(ctx context.Context, dbURL, authToken string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", withAuthToken(dbURL, authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}
	s := &LibSQLStore{db: db}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

// withAuthToken appends authToken to remote URLs; file: URLs are left alone.
func withAuthToken(dbURL, authToken string) string {
	if strings.HasPrefix(dbURL, "file:") || authToken == "" {
		return dbURL
	}
	if u, err := url.Parse(dbURL); err == nil {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		return u.String()
	}
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "authToken=" + url.QueryEscape(authToken)
}

func (s *LibSQLStore) initialize(ctx context.Context) error {
	done := metrics.TimeOp("db_initialize")
	success := false
	defer func() { done(success) }()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range schema {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	success = true
	return nil
}

// Load replays graph_records in seq order.
func (s *LibSQLStore) Load(ctx context.Context) (*apptype.Graph, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record FROM graph_records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query graph records: %w", err)
	}
	defer rows.Close()

	g := apptype.NewGraph()
	pos := 0
	for rows.Next() {
		pos++
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan graph record: %w", err)
		}
		if err := decodeRecord(g, pos, []byte(record)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Save replaces every row in a single transaction.
func (s *LibSQLStore) Save(ctx context.Context, g *apptype.Graph) error {
	records, err := encodeGraph(g)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM graph_records"); err != nil {
		return fmt.Errorf("failed to clear graph records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO graph_records (seq, record) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()
	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, i+1, string(rec)); err != nil {
			return fmt.Errorf("failed to insert graph record %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph records: %w", err)
	}
	return nil
}

func (s *LibSQLStore) Close() error {
	return s.db.Close()
}
