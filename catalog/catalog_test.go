package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	models "cafe-cart/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func price(n int) *int { return &n }

func TestDefaultMenu(t *testing.T) {
	c := Default()

	gobi, err := c.Lookup("gobi65")
	require.NoError(t, err)
	assert.Equal(t, "Gobi 65", gobi.Name)
	assert.True(t, gobi.HasSizes())
	full, ok := gobi.Size("Full")
	require.True(t, ok)
	assert.Equal(t, 120, full.Price)

	fries, err := c.Lookup("french-fries")
	require.NoError(t, err)
	require.NotNil(t, fries.Price)
	assert.Equal(t, 99, *fries.Price)
	masala, ok := fries.Addon("Masala")
	require.True(t, ok)
	assert.Equal(t, 10, masala.Price)

	_, err = c.Lookup("pineapple-pizza")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	ok := models.Menu{Categories: []models.Category{{ID: "c", Items: []models.CatalogItem{
		{ID: "a", Name: "A", Price: price(10)},
		{ID: "b", Name: "B", Sizes: []models.Option{{Label: "Half", Price: 5}}},
	}}}}
	require.NoError(t, Validate(ok))

	bad := map[string]models.CatalogItem{
		"both":      {ID: "x", Name: "X", Price: price(1), Sizes: []models.Option{{Label: "S", Price: 1}}},
		"neither":   {ID: "x", Name: "X"},
		"no id":     {Name: "X", Price: price(1)},
		"no name":   {ID: "x", Price: price(1)},
		"negative":  {ID: "x", Name: "X", Price: price(-1)},
		"bad addon": {ID: "x", Name: "X", Price: price(1), Addons: []models.Option{{Label: "", Price: 1}}},
		"neg. size": {ID: "x", Name: "X", Sizes: []models.Option{{Label: "S", Price: -2}}},
	}
	for name, it := range bad {
		menu := models.Menu{Categories: []models.Category{{ID: "c", Items: []models.CatalogItem{it}}}}
		assert.ErrorIs(t, Validate(menu), ErrInvalidItem, name)
	}

	dup := models.Menu{Categories: []models.Category{
		{ID: "c1", Items: []models.CatalogItem{{ID: "a", Name: "A", Price: price(1)}}},
		{ID: "c2", Items: []models.CatalogItem{{ID: "a", Name: "A2", Price: price(2)}}},
	}}
	assert.ErrorIs(t, Validate(dup), ErrInvalidItem)
}

func TestLoadFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"categories":[{"id":"tea","name":"Tea","items":[{"id":"chai","name":"Masala Chai","price":20}]}]}`))
	}))
	defer srv.Close()

	c := Load(context.Background(), srv.URL+"/menu.json", time.Second, nil)
	it, err := c.Lookup("chai")
	require.NoError(t, err)
	assert.Equal(t, "Masala Chai", it.Name)
	_, err = c.Lookup("gobi65")
	assert.ErrorIs(t, err, ErrNotFound, "remote menu should replace the embedded one")
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	broken := filepath.Join(dir, "menu.json")
	require.NoError(t, os.WriteFile(broken, []byte("{oops"), 0o644))
	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"categories":[{"id":"c","items":[{"id":"x","name":"X"}]}]}`), 0o644))

	for _, src := range []string{srv.URL, broken, invalid, filepath.Join(dir, "missing.json")} {
		c := Load(context.Background(), src, time.Second, nil)
		_, err := c.Lookup("gobi65")
		assert.NoError(t, err, "source %s should fall back", src)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	doc := `
categories:
  - id: rolls
    name: Rolls
    items:
      - id: kolkata-roll
        name: Kolkata Roll
        price: 80
        addons:
          - label: Cheese
            price: 20
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c := Load(context.Background(), path, 0, nil)
	it, err := c.Lookup("kolkata-roll")
	require.NoError(t, err)
	require.Len(t, it.Addons, 1)
	assert.Equal(t, models.Option{Label: "Cheese", Price: 20}, it.Addons[0])
}

func TestPriceLabel(t *testing.T) {
	c := Default()
	gobi, _ := c.Lookup("gobi65")
	assert.Equal(t, "₹70 / ₹120 (Half / Full)", PriceLabel(gobi, "₹"))
	fries, _ := c.Lookup("french-fries")
	assert.Equal(t, "₹99", PriceLabel(fries, "₹"))
}

func TestWatcherReloadsFile(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)

	path := filepath.Join(t.TempDir(), "menu.json")
	write := func(doc string) {
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	}
	write(`{"categories":[{"id":"c","name":"C","items":[{"id":"a","name":"Old","price":10}]}]}`)

	h := NewHolder(Load(context.Background(), path, 0, nil))
	w, err := NewWatcher(path, h, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	write(`{"categories":[{"id":"c","name":"C","items":[{"id":"a","name":"New","price":12}]}]}`)
	assert.Eventually(t, func() bool {
		it, err := h.Get().Lookup("a")
		return err == nil && it.Name == "New"
	}, 5*time.Second, 50*time.Millisecond)

	// a broken write keeps the last good menu
	write(`{broken`)
	time.Sleep(600 * time.Millisecond)
	it, err := h.Get().Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "New", it.Name)

	w.Stop()
}
