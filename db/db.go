// Tournament archive
//
// Copyright (c) 2024, 2025  Atila Sos
//
// This file is part of crjm-server.
//
// crjm-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// crjm-server is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with crjm-server. If not, see
// <http://www.gnu.org/licenses/>

// Package db archives finished tournaments and named snapshots in a
// sqlite database.  The live tournament state never lives here; the
// archive stores the same serialized form the export endpoint emits.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS archive (
	id       TEXT PRIMARY KEY,
	game     TEXT NOT NULL,
	label    TEXT,
	champion TEXT,
	ended    TIMESTAMP,
	data     BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot (
	name       TEXT PRIMARY KEY,
	tournament TEXT NOT NULL,
	created    TIMESTAMP,
	data       BLOB NOT NULL
);
`

type DB struct {
	conn *sql.DB
}

// Open creates or opens the archive at PATH
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	// sqlite tolerates one writer; the archive sees little traffic
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("preparing archive schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// Entry describes one archived tournament
type Entry struct {
	ID       string    `json:"id"`
	Game     string    `json:"game"`
	Label    string    `json:"label,omitempty"`
	Champion string    `json:"champion,omitempty"`
	Ended    time.Time `json:"ended"`
}

// SaveTournament stores or replaces a finished tournament
func (db *DB) SaveTournament(ctx context.Context, e Entry, data []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive (id, game, label, champion, ended, data)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Game, e.Label, e.Champion, e.Ended, data)
	return err
}

// LoadTournament fetches an archived tournament's serialized form
func (db *DB) LoadTournament(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM archive WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns the archived tournaments, most recently ended first
func (db *DB) List(ctx context.Context) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, game, label, champion, ended
		FROM archive ORDER BY ended DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Game, &e.Label, &e.Champion, &e.Ended); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveSnapshot stores a named restore point for a tournament
func (db *DB) SaveSnapshot(ctx context.Context, name, tournamentID string, data []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot (name, tournament, created, data)
		VALUES (?, ?, ?, ?)`,
		name, tournamentID, time.Now(), data)
	return err
}

// LoadSnapshot fetches a named restore point
func (db *DB) LoadSnapshot(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM snapshot WHERE name = ?`, name).Scan(&data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Snapshot describes one named restore point
type Snapshot struct {
	Name       string    `json:"name"`
	Tournament string    `json:"tournament"`
	Created    time.Time `json:"created"`
}

// ListSnapshots returns the stored restore points, newest first
func (db *DB) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, tournament, created
		FROM snapshot ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.Name, &s.Tournament, &s.Created); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
