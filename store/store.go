package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"sync"

	models "cafe-cart/model"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

// dialect holds the statements that differ between SQL backends.
type dialect struct {
	driver      string
	schema      string
	get         string
	set         string
	insertOrder string
	insertItem  string
}

var postgres = dialect{
	driver: "postgres",
	schema: "migrations/postgres.sql",
	get:    `SELECT value FROM kv_store WHERE key = $1`,
	set: `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
	insertOrder: `INSERT INTO orders (reference, mobile, address, total, payload, uri, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
	insertItem:  `INSERT INTO order_items (order_ref, position, name, quantity, price) VALUES ($1,$2,$3,$4,$5)`,
}

// SQLStore is a Store and Archive backed by a database/sql connection.
type SQLStore struct {
	DB *sql.DB

	d dialect

	// per-key mutexes so overlapping writers of one key land in call order
	// within this process. Keys are key -> *sync.Mutex
	locks sync.Map
}

// NewPostgresStore connects to Postgres and applies the embedded schema.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	return openSQL(postgres, dsn)
}

func openSQL(d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLStore{DB: db, d: d}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the kv and receipt tables if they are missing.
func (s *SQLStore) Migrate() error {
	schema, err := migrations.ReadFile(s.d.schema)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(string(schema))
	return err
}

func (s *SQLStore) Close() error { return s.DB.Close() }

// helper: acquire per-key lock (process-local). Returns unlock func.
func (s *SQLStore) lockForKey(key string) func() {
	if v, ok := s.locks.Load(key); ok {
		m := v.(*sync.Mutex)
		m.Lock()
		return func() { m.Unlock() }
	}

	m := &sync.Mutex{}
	actual, _ := s.locks.LoadOrStore(key, m)
	mtx := actual.(*sync.Mutex)
	mtx.Lock()
	return func() { mtx.Unlock() }
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	unlock := s.lockForKey(key)
	defer unlock()

	_, err := s.DB.ExecContext(ctx, s.d.set, key, value)
	return err
}

// ArchiveOrder writes the receipt and its lines in one transaction.
func (s *SQLStore) ArchiveOrder(ctx context.Context, rec models.OrderRecord) error {
	if len(rec.Lines) == 0 {
		return errors.New("order has no lines")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// ensure rollback on early return
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, s.d.insertOrder,
		rec.Reference, rec.Mobile, rec.Address, rec.Total, rec.Text, rec.URI, rec.CreatedAt,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, s.d.insertItem)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range rec.Lines {
		if _, err := stmt.ExecContext(ctx, rec.Reference, i+1, l.Name, l.Quantity, l.Price); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
