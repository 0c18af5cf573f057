package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2-yoyodex/internal/bootstrap"
	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/config"
	"g2-yoyodex/internal/logger"
)

type env struct {
	remote *httptest.Server
	store  *cache.MemoryStore
	fail   atomic.Bool
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: cache.NewMemoryStore()}
	t.Cleanup(func() { e.store.Close() })

	e.remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Query().Get("sheet") {
		case "yoyos":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"model": "Loadout", "colorway": "Cove", "release_date": "2022-01-10", "image_url": "http://" + r.Host + "/img/cove.jpg"},
				{"model": "Shutter", "colorway": "Black", "release_date": "2013-05-01"},
			})
		case "specs":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"model": "Shutter", "dia": "56"}})
		default:
			_, _ = w.Write([]byte("jpegbytes"))
		}
	}))
	t.Cleanup(e.remote.Close)
	return e
}

// open wires the app on the shared memory store. Each command closes its
// App, so the store is wrapped to survive that.
func (e *env) open(cfg *config.Config, log *logger.Logger) (*bootstrap.App, error) {
	cfg.Cache.Type = "memory"
	cfg.Source.ItemsURL = e.remote.URL + "/exec?sheet=yoyos"
	cfg.Source.SpecsURL = e.remote.URL + "/exec?sheet=specs"
	cfg.Images.RetryDelay = 0
	return bootstrap.New(cfg, keepOpen{e.store}, log), nil
}

type keepOpen struct{ *cache.MemoryStore }

func (keepOpen) Close() error { return nil }

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", e.open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncThenOfflineQuery(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "items")
	assert.Contains(t, out, "settled")
	assert.Contains(t, out, "2 added")

	e.fail.Store(true)
	out, err = e.run(t, "query", "--offline", "--sort", "date", "--asc")
	require.NoError(t, err)
	assert.Regexp(t, `(?s)shutter--black.*loadout--cove`, out)
	assert.Contains(t, out, "page 1 of 1, 2 matching")
}

func TestQueryJSON(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "query", "--json", "--model", "shutter")
	require.NoError(t, err)

	var res struct {
		Total int `json:"total"`
		Items []struct {
			Identity string `json:"identity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "shutter--black", res.Items[0].Identity)
}

func TestQueryFailsWithoutData(t *testing.T) {
	e := newEnv(t)
	e.fail.Store(true)

	_, err := e.run(t, "query")
	assert.Error(t, err)

	_, err = e.run(t, "query", "--offline")
	assert.ErrorContains(t, err, "yoyodex sync")

	_, err = e.run(t, "query", "--asc", "--desc")
	assert.Error(t, err)
}

func TestCacheCommands(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "sync")
	require.NoError(t, err)

	out, err := e.run(t, "cache", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "yoyodex:items:v")

	out, err = e.run(t, "cache", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 2 dataset entries")

	out, err = e.run(t, "cache", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "datasets: removed 0")
}

func TestImages(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()

	out, err := e.run(t, "images", "--dir", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "loadout", "loadout_cove.jpg"))

	out, err = e.run(t, "images", "--dir", dir, "--thumb-width", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "saved 1, skipped 0, failed 0")

	data, err := os.ReadFile(filepath.Join(dir, "loadout", "loadout_cove.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(data))

	out, err = e.run(t, "images", "--dir", dir, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "saved 0, skipped 1, failed 0")
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "yoyodex test")
}

func TestParseCaptionArgs(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "parse-caption", "Banshee GT - White Walker - 4/1/25, only 30 available")
	require.NoError(t, err)
	assert.Contains(t, out, "Banshee Gt")
	assert.Contains(t, out, "White Walker")
	assert.Contains(t, out, "April 1, 2025")
	assert.Contains(t, out, "30")
}

func TestParseCaptionStdinSheetRows(t *testing.T) {
	root := NewRootCommand("test", nil)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("Wolf - Black\nrestock soon\n\n\nShutter - Cove\n"))
	root.SetArgs([]string{"parse-caption", "--sheet", "--model", "shutter", "--colorway", "cove"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Wolf", rows[0]["model"])
	assert.Equal(t, "Black", rows[0]["colorway"])
	assert.Equal(t, "Wolf - Black\nrestock soon", rows[0]["description"])
	assert.Equal(t, "Shutter", rows[1]["model"])
	assert.Equal(t, "Cove", rows[1]["colorway"])
}

func TestParseCaptionNothingGiven(t *testing.T) {
	root := NewRootCommand("test", nil)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("\n  \n"))
	root.SetArgs([]string{"parse-caption"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}
