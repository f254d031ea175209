// Package main implements a mock storefront server for local development.
// It serves product page fixtures so scrapers can be exercised end to end
// without hitting real storefronts or tripping their bot protection.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureDir := flag.String("fixtures", "tools/mock-server/testdata", "directory with product page fixtures")
	latency := flag.Duration("latency", 0, "artificial delay before each response")
	failEvery := flag.Int("fail-every", 0, "return 503 on every Nth request (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pages, err := loadFixtures(*fixtureDir)
	if err != nil {
		logger.Error("failed to load fixtures", "dir", *fixtureDir, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixtures", "pages", len(pages))

	mux := http.NewServeMux()
	mux.HandleFunc("/", indexHandler(pages))
	mux.HandleFunc("/produto/", pageHandler(logger, pages, *latency))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock storefront", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, failureInjector(logger, *failEvery, mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// loadFixtures reads every .html file in dir, keyed by base name without
// extension.
func loadFixtures(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading fixture dir: %w", err)
	}

	pages := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) //nolint:gosec // fixture path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", e.Name(), err)
		}
		pages[strings.TrimSuffix(e.Name(), ".html")] = data
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no .html fixtures in %s", dir)
	}
	return pages, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "ua", r.UserAgent())
		next.ServeHTTP(w, r)
	})
}

// failureInjector returns 503 on every nth request to exercise scraper
// error handling. n == 0 disables injection.
func failureInjector(logger *slog.Logger, n int, next http.Handler) http.Handler {
	var count atomic.Int64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n > 0 {
			c := count.Add(1)
			if c%int64(n) == 0 {
				logger.Warn("injected failure", "path", r.URL.Path, "request", c)
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func indexHandler(pages map[string][]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, "<html><body><h1>Mock storefront</h1><ul>")
		for name := range pages {
			fmt.Fprintf(w, `<li><a href="/produto/%s">%s</a></li>`+"\n", name, name)
		}
		fmt.Fprintln(w, "</ul></body></html>")
	}
}

func pageHandler(logger *slog.Logger, pages map[string][]byte, latency time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/produto/")
		body, ok := pages[name]
		if !ok {
			logger.Warn("unknown product page", "page", name)
			http.NotFound(w, r)
			return
		}

		if latency > 0 {
			time.Sleep(latency)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body) //nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		logger.Info("served page", "page", name, "bytes", len(body))
	}
}
