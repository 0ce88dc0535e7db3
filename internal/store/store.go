// Package store persists anchors and anchor matches in SQLite. The core
// algorithms never touch storage themselves; the store is the caller's
// transaction boundary. Replacing an alignment run is a single transaction
// (delete old rows for the version pair, insert the new set), which keeps
// re-running idempotent and preserves the one-row-per-from-anchor
// uniqueness constraint.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ndrozdov/anchora/internal/model"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS anchors (
	doc_version_id TEXT NOT NULL,
	anchor_id      TEXT NOT NULL,
	section_path   TEXT,
	content_type   TEXT NOT NULL,
	ordinal        INTEGER NOT NULL,
	text_raw       TEXT NOT NULL,
	location_json  TEXT,
	confidence     REAL,
	PRIMARY KEY (doc_version_id, anchor_id)
);

CREATE TABLE IF NOT EXISTS match_runs (
	run_id              TEXT PRIMARY KEY,
	document_id         TEXT NOT NULL,
	from_doc_version_id TEXT NOT NULL,
	to_doc_version_id   TEXT NOT NULL,
	match_count         INTEGER NOT NULL,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS anchor_matches (
	document_id         TEXT NOT NULL,
	from_doc_version_id TEXT NOT NULL,
	to_doc_version_id   TEXT NOT NULL,
	from_anchor_id      TEXT NOT NULL,
	to_anchor_id        TEXT NOT NULL,
	score               REAL NOT NULL,
	method              TEXT NOT NULL,
	debug_json          TEXT,
	UNIQUE (from_doc_version_id, to_doc_version_id, from_anchor_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_document
	ON anchor_matches (document_id);
CREATE INDEX IF NOT EXISTS idx_matches_to
	ON anchor_matches (to_doc_version_id, to_anchor_id);
`

// Store wraps a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a store at path. ":memory:" is accepted
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnchors inserts or replaces the anchors of one document version
func (s *Store) SaveAnchors(ctx context.Context, anchors []model.Anchor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO anchors
		(doc_version_id, anchor_id, section_path, content_type, ordinal, text_raw, location_json, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range anchors {
		var conf interface{}
		if a.Confidence != nil {
			conf = *a.Confidence
		}
		if _, err := stmt.ExecContext(ctx,
			a.DocVersionID, a.AnchorID, a.SectionPath, string(a.ContentType),
			a.Ordinal, a.TextRaw, a.LocationJSON, conf); err != nil {
			return fmt.Errorf("insert anchor %s: %w", a.AnchorID, err)
		}
	}
	return tx.Commit()
}

// Anchors loads the anchors of one document version in ordinal order
func (s *Store) Anchors(ctx context.Context, docVersionID string) ([]model.Anchor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_version_id, anchor_id, section_path, content_type, ordinal, text_raw, location_json, confidence
		FROM anchors WHERE doc_version_id = ? ORDER BY ordinal`, docVersionID)
	if err != nil {
		return nil, fmt.Errorf("query anchors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var anchors []model.Anchor
	for rows.Next() {
		var a model.Anchor
		var ct string
		var sectionPath, locationJSON sql.NullString
		var conf sql.NullFloat64
		if err := rows.Scan(&a.DocVersionID, &a.AnchorID, &sectionPath, &ct,
			&a.Ordinal, &a.TextRaw, &locationJSON, &conf); err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		a.SectionPath = sectionPath.String
		a.LocationJSON = locationJSON.String
		a.ContentType = model.ParseContentType(ct)
		if conf.Valid {
			c := conf.Float64
			a.Confidence = &c
		}
		anchors = append(anchors, a)
	}
	return anchors, rows.Err()
}

// ReplaceMatches supersedes the alignment of one version pair: old rows
// are deleted and the new set inserted inside one transaction. Returns the
// recorded run id.
func (s *Store) ReplaceMatches(ctx context.Context, documentID, fromVersion, toVersion string, matches []model.AnchorMatch) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM anchor_matches
		WHERE from_doc_version_id = ? AND to_doc_version_id = ?`,
		fromVersion, toVersion); err != nil {
		return "", fmt.Errorf("delete previous matches: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anchor_matches
		(document_id, from_doc_version_id, to_doc_version_id, from_anchor_id, to_anchor_id, score, method, debug_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range matches {
		var debug interface{}
		if m.Debug != nil {
			data, err := json.Marshal(m.Debug)
			if err != nil {
				return "", fmt.Errorf("marshal debug for %s: %w", m.FromAnchorID, err)
			}
			debug = string(data)
		}
		if _, err := stmt.ExecContext(ctx,
			documentID, fromVersion, toVersion,
			m.FromAnchorID, m.ToAnchorID, m.Score, string(m.Method), debug); err != nil {
			return "", fmt.Errorf("insert match %s: %w", m.FromAnchorID, err)
		}
	}

	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO match_runs (run_id, document_id, from_doc_version_id, to_doc_version_id, match_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, documentID, fromVersion, toVersion, len(matches),
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// MatchesByDocument returns every stored match for a document
func (s *Store) MatchesByDocument(ctx context.Context, documentID string) ([]model.AnchorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, from_doc_version_id, to_doc_version_id, from_anchor_id, to_anchor_id, score, method, debug_json
		FROM anchor_matches WHERE document_id = ?
		ORDER BY from_doc_version_id, to_doc_version_id, from_anchor_id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	return scanMatches(rows)
}

// MatchByToAnchor finds the match consuming a given to-anchor, if any
func (s *Store) MatchByToAnchor(ctx context.Context, toVersion, toAnchorID string) (*model.AnchorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, from_doc_version_id, to_doc_version_id, from_anchor_id, to_anchor_id, score, method, debug_json
		FROM anchor_matches WHERE to_doc_version_id = ? AND to_anchor_id = ?`, toVersion, toAnchorID)
	if err != nil {
		return nil, fmt.Errorf("query match: %w", err)
	}
	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func scanMatches(rows *sql.Rows) ([]model.AnchorMatch, error) {
	defer func() { _ = rows.Close() }()

	var matches []model.AnchorMatch
	for rows.Next() {
		var m model.AnchorMatch
		var method string
		var debug sql.NullString
		if err := rows.Scan(&m.DocumentID, &m.FromDocVersionID, &m.ToDocVersionID,
			&m.FromAnchorID, &m.ToAnchorID, &m.Score, &method, &debug); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Method = model.MatchMethod(method)
		if debug.Valid && debug.String != "" {
			if err := json.Unmarshal([]byte(debug.String), &m.Debug); err != nil {
				return nil, fmt.Errorf("parse debug for %s: %w", m.FromAnchorID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
