package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	models "cafe-cart/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
)

func TestGet_MissingAndPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := &SQLStore{DB: db, d: postgres}
	ctx := context.Background()

	// missing key -> ok=false, no error
	mock.ExpectQuery(regexp.QuoteMeta(postgres.get)).
		WithArgs("balojiCart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	v, ok, err := s.Get(ctx, "balojiCart")
	if err != nil || ok || v != "" {
		t.Fatalf("expected missing key, got %q %v %v", v, ok, err)
	}

	// present key
	mock.ExpectQuery(regexp.QuoteMeta(postgres.get)).
		WithArgs("balojiCart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"name":"Masala Chai","price":20,"quantity":2}]`))

	v, ok, err = s.Get(ctx, "balojiCart")
	if err != nil || !ok {
		t.Fatalf("expected present key, got %v %v", ok, err)
	}
	if !strings.Contains(v, "Masala Chai") {
		t.Fatalf("unexpected value %q", v)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_DriverError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &SQLStore{DB: db, d: postgres}

	mock.ExpectQuery(regexp.QuoteMeta(postgres.get)).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected driver error to propagate")
	}
}

func TestSet_Upsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &SQLStore{DB: db, d: postgres}

	mock.ExpectExec(regexp.QuoteMeta(postgres.set)).
		WithArgs("balojiCart", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "balojiCart", "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func testRecord() models.OrderRecord {
	return models.OrderRecord{
		Reference: "ref-1",
		Mobile:    "9876543210",
		Address:   "Main Road, Kudachi",
		Lines: []models.CartLine{
			{Name: "Gobi 65 (Full)", Price: 120, Quantity: 2},
			{Name: "French Fries [Masala]", Price: 109, Quantity: 1},
		},
		Total:     349,
		Text:      "order text",
		URI:       "https://wa.me/1?text=order%20text",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestArchiveOrder_Success(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &SQLStore{DB: db, d: postgres}
	rec := testRecord()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(postgres.insertOrder)).
		WithArgs("ref-1", "9876543210", "Main Road, Kudachi", 349, "order text", rec.URI, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectPrepare(regexp.QuoteMeta(postgres.insertItem))
	mock.ExpectExec(regexp.QuoteMeta(postgres.insertItem)).
		WithArgs("ref-1", 1, "Gobi 65 (Full)", 2, 120).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgres.insertItem)).
		WithArgs("ref-1", 2, "French Fries [Masala]", 1, 109).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := s.ArchiveOrder(context.Background(), rec); err != nil {
		t.Fatalf("ArchiveOrder failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveOrder_ItemFailureRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &SQLStore{DB: db, d: postgres}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(postgres.insertOrder)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(postgres.insertItem))
	mock.ExpectExec(regexp.QuoteMeta(postgres.insertItem)).
		WillReturnError(errors.New("check constraint"))
	mock.ExpectRollback()

	if err := s.ArchiveOrder(context.Background(), testRecord()); err == nil {
		t.Fatalf("expected error from item insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveOrder_NoLines(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &SQLStore{DB: db, d: postgres}

	rec := testRecord()
	rec.Lines = nil
	if err := s.ArchiveOrder(context.Background(), rec); err == nil {
		t.Fatalf("expected error for empty order")
	}
	// no DB calls expected
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected empty store")
	}
	_ = m.Set(ctx, "k", "v1")
	_ = m.Set(ctx, "k", "v2")
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v2" {
		t.Fatalf("expected overwrite, got %q", v)
	}

	rec := testRecord()
	_ = m.ArchiveOrder(ctx, rec)
	rec.Lines[0].Quantity = 99
	got := m.Records()
	if len(got) != 1 || got[0].Lines[0].Quantity != 2 {
		t.Fatalf("archived record should be a copy: %+v", got)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cart.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("sqlite3 driver needs cgo")
		}
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "balojiCart"); err != nil || ok {
		t.Fatalf("expected missing key, got %v %v", ok, err)
	}
	if err := s.Set(ctx, "balojiCart", "[1]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "balojiCart", "[2]"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if v, ok, err := s.Get(ctx, "balojiCart"); err != nil || !ok || v != "[2]" {
		t.Fatalf("expected [2], got %q %v %v", v, ok, err)
	}
	if err := s.ArchiveOrder(ctx, testRecord()); err != nil {
		t.Fatalf("ArchiveOrder: %v", err)
	}
	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_ref = ?`, "ref-1").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 archived lines, got %d", n)
	}
}

// ---- fake redis client ----
type fakeRedis struct {
	values map[string]string
	setErr error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisStore(t *testing.T) {
	fr := &fakeRedis{values: map[string]string{}}
	s := &RedisStore{rdb: fr}
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "balojiCart"); err != nil || ok {
		t.Fatalf("redis.Nil should map to missing key, got %v %v", ok, err)
	}
	if err := s.Set(ctx, "balojiCart", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "balojiCart"); !ok || v != "[]" {
		t.Fatalf("unexpected value %q", v)
	}

	fr.setErr = errors.New("READONLY")
	if err := s.Set(ctx, "balojiCart", "[]"); err == nil {
		t.Fatalf("expected set error to propagate")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mongo", ""); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	s, err := Open(context.Background(), "memory", "")
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := s.(Archive); !ok {
		t.Fatalf("memory store should archive orders")
	}
}
