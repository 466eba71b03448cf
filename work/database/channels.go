package database

import (
	"database/sql"
	"fmt"

	"streamhub/work/types"
)

// ReplaceChannels swaps the persisted channel set for the given
// entries inside one transaction. Partial updates are never written.
func (db *DB) ReplaceChannels(entries []types.ChannelEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM channels"); err != nil {
		return fmt.Errorf("failed to clear channels: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO channels (id, name, url, logo, category, cookie, referer, origin, slug)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.Name, e.URL, e.Logo, e.Category, e.Cookie, e.Referer, e.Origin, e.Slug); err != nil {
			return fmt.Errorf("failed to insert channel %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// LoadChannels reads the persisted channel set in id order.
func (db *DB) LoadChannels() ([]types.ChannelEntry, error) {
	rows, err := db.Query(`
		SELECT id, name, url, logo, category, cookie, referer, origin, slug
		FROM channels ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var entries []types.ChannelEntry
	for rows.Next() {
		var e types.ChannelEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.Logo, &e.Category, &e.Cookie, &e.Referer, &e.Origin, &e.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ChannelByID reads one persisted channel; the second return is false
// when the id is absent.
func (db *DB) ChannelByID(id int) (types.ChannelEntry, bool, error) {
	var e types.ChannelEntry
	err := db.QueryRow(`
		SELECT id, name, url, logo, category, cookie, referer, origin, slug
		FROM channels WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &e.URL, &e.Logo, &e.Category, &e.Cookie, &e.Referer, &e.Origin, &e.Slug)
	if err == sql.ErrNoRows {
		return types.ChannelEntry{}, false, nil
	}
	if err != nil {
		return types.ChannelEntry{}, false, fmt.Errorf("failed to read channel %d: %w", id, err)
	}
	return e, true, nil
}
