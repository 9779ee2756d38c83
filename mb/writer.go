package mb

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-quadstream/tile"
)

// Writer implements tile.Writer for MBTiles files.
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	stmt   *sql.Stmt
	logger *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new MBTiles file and prepares it for writing tiles.
// All tiles are inserted in a single transaction committed by Finalize.
func NewWriter(filePath string, opts ...WriterOption) (w *Writer, err error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB
		);
	`)
	if err != nil {
		return nil, err
	}

	for k, v := range config.Metadata {
		if _, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v); err != nil {
			return nil, err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &Writer{db: db, tx: tx, stmt: stmt, logger: config.Logger}, nil
}

func (w *Writer) Close() error {
	var errs []error
	if w.tx != nil {
		errs = append(errs, w.stmt.Close(), w.tx.Rollback())
		w.tx = nil
	}
	return errors.Join(append(errs, w.db.Close())...)
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	_, err := w.stmt.Exec(tileID.Z, tileID.X, flipY(tileID.Y, tileID.Z), tileData)
	return err
}

func (w *Writer) Finalize() error {
	if w.tx == nil {
		panic("quadstream: finalize called twice")
	}

	w.logger.Debug("quadstream: commit tiles")
	err := errors.Join(w.stmt.Close(), w.tx.Commit())
	w.tx = nil
	if err != nil {
		return err
	}

	w.logger.Debug("quadstream: creating index")
	_, err = w.db.Exec("CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)")

	w.logger.Debug("quadstream: done!")
	return err
}
