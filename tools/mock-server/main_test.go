package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadFixtures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "tenis.html", "<html><body>R$ 99,90</body></html>")
	writeFixture(t, dir, "notes.txt", "ignored")

	pages, err := loadFixtures(dir)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, string(pages["tenis"]), "R$ 99,90")
}

func TestLoadFixtures_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := loadFixtures(t.TempDir())
	require.Error(t, err)
}

func TestPageHandler(t *testing.T) {
	t.Parallel()

	pages := map[string][]byte{
		"tenis": []byte("<html><body><h1>Tênis</h1></body></html>"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/produto/", pageHandler(testLogger(), pages, 0))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/produto/tenis")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Tênis")
}

func TestPageHandler_UnknownPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/produto/", pageHandler(testLogger(), map[string][]byte{}, 0))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/produto/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexHandler(t *testing.T) {
	t.Parallel()

	pages := map[string][]byte{"tenis": nil, "vestido": nil}
	srv := httptest.NewServer(indexHandler(pages))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/produto/tenis")
	assert.Contains(t, string(body), "/produto/vestido")
}

func TestFailureInjector(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(failureInjector(testLogger(), 3, ok))
	defer srv.Close()

	var statuses []int
	for i := 0; i < 6; i++ {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 503, 200, 200, 503}, statuses)
}

func TestFailureInjector_Disabled(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(failureInjector(testLogger(), 0, ok))
	defer srv.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
