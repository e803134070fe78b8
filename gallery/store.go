package gallery

import (
	"bytes"
	"database/sql"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/crypto"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nfnt/resize"
)

const schema = `
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY,
	type TEXT NOT NULL,
	data BLOB NOT NULL,
	timestamp DATETIME NOT NULL,
	zoom REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_media_type ON media(type);
`

// Store persists media items in sqlite, keyed by their creation time in
// milliseconds.
type Store struct {
	db     *sql.DB
	sealer *crypto.Sealer

	sem    sync.Mutex
	lastID int64

	now func() time.Time
}

// Open opens or creates the gallery at path. Payloads are sealed at rest
// when sealer is not nil.
func Open(path string, sealer *crypto.Sealer) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create gallery schema: %w", err)
	}

	s := &Store{db: db, sealer: sealer, now: time.Now}
	if err := db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM media").Scan(&s.lastID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read gallery: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores item and returns its newly allocated id. A zero Timestamp is
// set to the current time.
func (s *Store) Save(item Item) (int64, error) {
	if !item.Type.Valid() {
		return 0, ErrInvalidType
	}

	now := s.now()
	if item.Timestamp.IsZero() {
		item.Timestamp = now
	}

	data, err := s.seal([]byte(item.Data))
	if err != nil {
		return 0, err
	}

	s.sem.Lock()
	defer s.sem.Unlock()
	id := now.UnixNano() / int64(time.Millisecond)
	if id <= s.lastID {
		id = s.lastID + 1
	}

	_, err = s.db.Exec(
		"INSERT INTO media (id, type, data, timestamp, zoom) VALUES (?, ?, ?, ?, ?)",
		id,
		string(item.Type),
		data,
		item.Timestamp.UTC(),
		item.Zoom,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save media: %w", err)
	}

	s.lastID = id
	return id, nil
}

func (s *Store) Get(id int64) (Item, error) {
	row := s.db.QueryRow("SELECT id, type, data, timestamp, zoom FROM media WHERE id = ?", id)
	item, err := s.scan(row)
	if err == sql.ErrNoRows {
		return item, ErrNotFound
	}
	return item, err
}

// List returns all items of type t, newest first. An empty t lists
// everything.
func (s *Store) List(t MediaType) ([]Item, error) {
	query := "SELECT id, type, data, timestamp, zoom FROM media"
	var args []interface{}
	if t != "" {
		if !t.Valid() {
			return nil, ErrInvalidType
		}
		query += " WHERE type = ?"
		args = append(args, string(t))
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media").Scan(&n)
	return n, err
}

// Thumbnail decodes a photo and scales it to fit within size x size.
func (s *Store) Thumbnail(id int64, size uint) (image.Image, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if item.Type != Photo {
		return nil, ErrNoThumbnail
	}

	_, payload, err := DecodeDataURL(item.Data)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo %d: %w", id, err)
	}

	return resize.Thumbnail(size, size, img, resize.Lanczos3), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scan(row scanner) (Item, error) {
	var item Item
	var typ string
	var data []byte
	if err := row.Scan(&item.ID, &typ, &data, &item.Timestamp, &item.Zoom); err != nil {
		return item, err
	}

	plain, err := s.open(data)
	if err != nil {
		return item, fmt.Errorf("failed to open media %d: %w", item.ID, err)
	}

	item.Type = MediaType(typ)
	item.Data = string(plain)
	return item, nil
}

func (s *Store) seal(data []byte) ([]byte, error) {
	if s.sealer == nil {
		return data, nil
	}
	return s.sealer.Seal(data)
}

func (s *Store) open(data []byte) ([]byte, error) {
	if s.sealer == nil {
		return data, nil
	}
	return s.sealer.Open(data)
}

// DataURL encodes payload as a base64 data url.
func DataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func DecodeDataURL(url string) (mime string, payload []byte, err error) {
	const prefix = "data:"
	const sep = ";base64,"
	if !strings.HasPrefix(url, prefix) {
		return "", nil, fmt.Errorf("not a data url")
	}

	ix := strings.Index(url, sep)
	if ix < 0 {
		return "", nil, fmt.Errorf("data url is not base64 encoded")
	}

	mime = url[len(prefix):ix]
	payload, err = base64.StdEncoding.DecodeString(url[ix+len(sep):])
	return
}
