package database

import (
	"database/sql"
	"fmt"

	"streamhub/work/types"
)

// ReplaceMatches swaps the persisted match set in one transaction.
func (db *DB) ReplaceMatches(entries []types.MatchEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM matches"); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO matches (id, title, description, image, status, category, start_time, m3u8_link, slug)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.Title, e.Description, e.Image, e.Status, e.Category, e.StartTime, e.M3U8Link, e.Slug); err != nil {
			return fmt.Errorf("failed to insert match %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// LoadMatches reads the persisted match set in id order.
func (db *DB) LoadMatches() ([]types.MatchEntry, error) {
	rows, err := db.Query(`
		SELECT id, title, description, image, status, category, start_time, m3u8_link, slug
		FROM matches ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var entries []types.MatchEntry
	for rows.Next() {
		var e types.MatchEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Image, &e.Status, &e.Category, &e.StartTime, &e.M3U8Link, &e.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MatchByID reads one persisted match; false when absent.
func (db *DB) MatchByID(id int) (types.MatchEntry, bool, error) {
	var e types.MatchEntry
	err := db.QueryRow(`
		SELECT id, title, description, image, status, category, start_time, m3u8_link, slug
		FROM matches WHERE id = ?
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.Image, &e.Status, &e.Category, &e.StartTime, &e.M3U8Link, &e.Slug)
	if err == sql.ErrNoRows {
		return types.MatchEntry{}, false, nil
	}
	if err != nil {
		return types.MatchEntry{}, false, fmt.Errorf("failed to read match %d: %w", id, err)
	}
	return e, true, nil
}
