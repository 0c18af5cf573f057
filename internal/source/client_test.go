package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/normalize"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodesArray(t *testing.T) {
	srv := newServer(t, http.StatusOK, `[{"model":"Shutter","colorway":"Black"}]`)
	c := NewClient(Config{ItemsURL: srv.URL, UserAgent: "test-agent"}, nil)

	payload, err := c.Fetch(context.Background(), model.ResourceItems)
	require.NoError(t, err)
	arr, ok := payload.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 1)
}

func TestFetchNon2xx(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `oops`)
	c := NewClient(Config{SpecsURL: srv.URL, UserAgent: "test-agent"}, nil)

	_, err := c.Fetch(context.Background(), model.ResourceSpecs)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestFetchNonJSON(t *testing.T) {
	srv := newServer(t, http.StatusOK, `<html>login</html>`)
	c := NewClient(Config{ItemsURL: srv.URL, UserAgent: "test-agent"}, nil)

	_, err := c.Fetch(context.Background(), model.ResourceItems)
	assert.Error(t, err)
}

func TestFetchRejectsTrailingData(t *testing.T) {
	for _, body := range []string{
		`[{"model":"Shutter","colorway":"Black"}]<html>`,
		`[] []`,
		`[{"model":"Shutter"}]}`,
	} {
		srv := newServer(t, http.StatusOK, body)
		c := NewClient(Config{ItemsURL: srv.URL, UserAgent: "test-agent"}, nil)

		_, err := c.Fetch(context.Background(), model.ResourceItems)
		assert.Error(t, err, body)
	}
}

func TestFetchAllowsTrailingWhitespace(t *testing.T) {
	srv := newServer(t, http.StatusOK, "[{\"model\":\"Shutter\"}]\n  \n")
	c := NewClient(Config{ItemsURL: srv.URL, UserAgent: "test-agent"}, nil)

	payload, err := c.Fetch(context.Background(), model.ResourceItems)
	require.NoError(t, err)
	assert.Len(t, payload, 1)
}

func TestFetchUnconfigured(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.Fetch(context.Background(), model.ResourceItems)
	assert.Error(t, err)
}

func TestRecordFetcherDegradesObjectPayload(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"error":"sheet not found"}`)
	f := NewRecordFetcher(NewClient(Config{ItemsURL: srv.URL, UserAgent: "test-agent"}, nil), normalize.New("", nil), nil)

	recs, err := f.Fetch(context.Background(), model.ResourceItems)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
