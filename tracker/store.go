// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker persists first-seen/last-seen timestamps for element
// identifiers and bulk-loads match records, the two stores the match
// stream feeds downstream.
package tracker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/overmatch/overmatch/conflate"
	_ "modernc.org/sqlite" // register sqlite driver
)

// Element is one tracked identifier.
type Element struct {
	ID        string    `json:"element_id"`
	Source    string    `json:"source"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store wraps the embedded database holding elements and matches.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS elements (
			element_id TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			osm_id        TEXT NOT NULL,
			overture_id   TEXT NOT NULL,
			lon           REAL NOT NULL,
			lat           REAL NOT NULL,
			distance_m    REAL NOT NULL,
			similarity    REAL NOT NULL,
			overture_tags TEXT NOT NULL,
			loaded_at     TEXT NOT NULL,
			PRIMARY KEY (osm_id, overture_id)
		)`,
		`CREATE INDEX IF NOT EXISTS matches_osm_id ON matches (osm_id)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	return nil
}

// Mark upserts the given identifiers for a source: first_seen is kept
// from the first sighting, last_seen always moves forward.
func (s *Store) Mark(source string, ids []string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning mark: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO elements (element_id, source, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (element_id) DO UPDATE SET last_seen = excluded.last_seen`)
	if err != nil {
		return fmt.Errorf("preparing mark: %w", err)
	}
	defer stmt.Close()

	ts := now.UTC().Format(time.RFC3339)

	for _, id := range ids {
		if id == "" {
			continue
		}

		if _, err := stmt.Exec(id, source, ts, ts); err != nil {
			return fmt.Errorf("marking %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Get returns the tracked elements among ids, keyed by identifier.
// Unknown identifiers are simply absent from the result.
func (s *Store) Get(ids []string) (map[string]Element, error) {
	elements := make(map[string]Element, len(ids))

	stmt, err := s.db.Prepare(
		`SELECT element_id, source, first_seen, last_seen FROM elements WHERE element_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("preparing lookup: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		var (
			e                   Element
			firstSeen, lastSeen string
		)

		err := stmt.QueryRow(id).Scan(&e.ID, &e.Source, &firstSeen, &lastSeen)
		if err == sql.ErrNoRows {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", id, err)
		}

		if e.FirstSeen, err = time.Parse(time.RFC3339, firstSeen); err != nil {
			return nil, fmt.Errorf("parsing first_seen of %s: %w", id, err)
		}

		if e.LastSeen, err = time.Parse(time.RFC3339, lastSeen); err != nil {
			return nil, fmt.Errorf("parsing last_seen of %s: %w", id, err)
		}

		elements[e.ID] = e
	}

	return elements, nil
}

// LoadMatches groups records by osm_id and persists them in a single
// transaction, replacing earlier rows for the same pair. It returns
// the number of distinct source identifiers loaded.
func (s *Store) LoadMatches(records []conflate.MatchRecord, now time.Time) (int, error) {
	grouped := make(map[string][]conflate.MatchRecord)

	for _, r := range records {
		if r.OSMID == "" {
			log.Printf("Skipping match without osm_id (overture_id %s)", r.OvertureID)

			continue
		}

		grouped[r.OSMID] = append(grouped[r.OSMID], r)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches
		(osm_id, overture_id, lon, lat, distance_m, similarity, overture_tags, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing load: %w", err)
	}
	defer stmt.Close()

	ts := now.UTC().Format(time.RFC3339)

	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		for _, r := range grouped[id] {
			tags, err := json.Marshal(r.OvertureTags)
			if err != nil {
				return 0, fmt.Errorf("encoding tags for %s/%s: %w", r.OSMID, r.OvertureID, err)
			}

			_, err = stmt.Exec(r.OSMID, r.OvertureID, r.Lon, r.Lat, r.DistanceM, r.Similarity, string(tags), ts)
			if err != nil {
				return 0, fmt.Errorf("loading %s/%s: %w", r.OSMID, r.OvertureID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load: %w", err)
	}

	return len(ids), nil
}

// MatchesFor returns the stored matches for each of the given OSM
// identifiers. Identifiers without matches map to no entry.
func (s *Store) MatchesFor(osmIDs []string) (map[string][]conflate.MatchRecord, error) {
	result := make(map[string][]conflate.MatchRecord)

	stmt, err := s.db.Prepare(`
		SELECT osm_id, overture_id, lon, lat, distance_m, similarity, overture_tags
		FROM matches WHERE osm_id = ? ORDER BY overture_id`)
	if err != nil {
		return nil, fmt.Errorf("preparing match lookup: %w", err)
	}
	defer stmt.Close()

	for _, id := range osmIDs {
		rows, err := stmt.Query(id)
		if err != nil {
			return nil, fmt.Errorf("querying matches for %s: %w", id, err)
		}

		for rows.Next() {
			var (
				r    conflate.MatchRecord
				tags string
			)

			if err := rows.Scan(&r.OSMID, &r.OvertureID, &r.Lon, &r.Lat, &r.DistanceM, &r.Similarity, &tags); err != nil {
				rows.Close()

				return nil, fmt.Errorf("scanning match for %s: %w", id, err)
			}

			if err := json.Unmarshal([]byte(tags), &r.OvertureTags); err != nil {
				rows.Close()

				return nil, fmt.Errorf("decoding tags for %s/%s: %w", r.OSMID, r.OvertureID, err)
			}

			result[id] = append(result[id], r)
		}

		if err := rows.Err(); err != nil {
			rows.Close()

			return nil, fmt.Errorf("iterating matches for %s: %w", id, err)
		}

		rows.Close()
	}

	return result, nil
}
