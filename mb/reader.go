// Package mb provides tile sources and sinks in MBTiles format.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-quadstream/tile"
)

// flipY converts between XYZ and TMS row numbering; the conversion is its own inverse.
func flipY(y, z uint32) uint32 {
	return (1 << z) - 1 - y
}

// Reader implements tile.Reader and tile.Visitor for MBTiles files.
// It is safe for concurrent use.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader creates a new Reader for the given MBTiles file path.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}

func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	var tileData []byte
	err := r.stmt.QueryRow(tileID.Z, tileID.X, flipY(tileID.Y, tileID.Z)).Scan(&tileData)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z uint32
		var tileData []byte
		if err := rows.Scan(&z, &x, &y, &tileData); err != nil {
			return err
		}
		if err := visitor(tile.ID{X: x, Y: flipY(y, z), Z: z}, tileData); err != nil {
			return err
		}
	}
	return rows.Err()
}
