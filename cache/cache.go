/*
Package cache implements a SQLite backed store of color resolutions so
repeated conversions against the same palette skip the nearest color
search for colors already seen.
*/
package cache

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/wbox/palette"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the resolution cache. It implements colormap.Store.
type DB struct {
	db *sql.DB
}

// New opens or creates the cache database in file
func New(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS palette (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS resolution (palette_id INTEGER NOT NULL, color INTEGER NOT NULL, entry INTEGER NOT NULL, PRIMARY KEY(palette_id, color), FOREIGN KEY(palette_id) REFERENCES palette(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) findPalette(fingerprint string) (int64, bool, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM palette WHERE sha1 = ?", fingerprint).Scan(&id); err {
	case sql.ErrNoRows:
		return 0, false, nil
	case nil:
		return id, true, nil
	default:
		return 0, false, err
	}
}

func (db *DB) addPalette(tx *sql.Tx, fingerprint string) (int64, error) {
	var id int64
	switch err := tx.QueryRow("SELECT id FROM palette WHERE sha1 = ?", fingerprint).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO palette (sha1) VALUES (?)", fingerprint)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// Load returns the cached palette position for each of colors that has one
func (db *DB) Load(fingerprint string, colors []palette.Color) (map[palette.Color]int, error) {
	resolved := make(map[palette.Color]int)

	id, ok, err := db.findPalette(fingerprint)
	if err != nil || !ok {
		return resolved, err
	}

	stmt, err := db.db.Prepare("SELECT entry FROM resolution WHERE palette_id = ? AND color = ?")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, c := range colors {
		var entry int
		switch err := stmt.QueryRow(id, c.RGB()).Scan(&entry); err {
		case sql.ErrNoRows:
		case nil:
			resolved[c] = entry
		default:
			return nil, err
		}
	}

	return resolved, nil
}

// Save records resolutions for the palette with the given fingerprint
func (db *DB) Save(fingerprint string, resolved map[palette.Color]int) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id, err := db.addPalette(tx, fingerprint)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO resolution (palette_id, color, entry) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for c, entry := range resolved {
		if _, err := stmt.Exec(id, c.RGB(), entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}
