package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// stubFetcher serves canned pages and records requested URLs.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
	// before runs before every GetHTML, e.g. to block.
	before func(url string)
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages, calls: make(map[string]int)}
}

func (s *stubFetcher) GetHTML(_ context.Context, url string) (string, error) {
	if s.before != nil {
		s.before(url)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	body, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, http.StatusNotFound, url)
	}
	return body, nil
}

func (s *stubFetcher) Download(_ context.Context, url, dest string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	body, ok := s.pages[url]
	if !ok {
		return http.StatusNotFound, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, http.StatusNotFound, url)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, err
	}
	return http.StatusOK, os.WriteFile(dest, []byte(body), 0600)
}

func (s *stubFetcher) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *stubFetcher) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

const testBase = "https://sims.test"

func listingPage(slugs ...string) string {
	body := `<html><body><div class="simulation-index">`
	for _, s := range slugs {
		body += fmt.Sprintf(`<a href="/en/simulation/%s">%s</a>`, s, s)
	}
	return body + `</div></body></html>`
}

func offlinePage(files ...string) string {
	body := `<html><body><div class="oa-html5">`
	for _, f := range files {
		body += fmt.Sprintf(`<a href="/sims/html/x/latest/%s">%s</a>`, f, f)
	}
	return body + `</div></body></html>`
}

func detailPage(id, lang, title, description string, topics ...string) string {
	body := fmt.Sprintf(`<html><body>
<h1 class="simulation-main-title"> %s </h1>
<a class="sim-download" href="/sims/html/%s/latest/%s_%s.html">Download</a>
<div class="sim-page-content"><ul>
`, title, id, id, lang)
	for _, t := range topics {
		body += "<li>" + t + "</li>\n"
	}
	body += fmt.Sprintf(`</ul></div>
<p class="simulation-panel-indent" itemprop="description">%s</p>
</body></html>`, description)
	return body
}

// newSiteServer serves routes; unknown paths get 404.
func newSiteServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found page body")) //nolint:errcheck // test server
			return
		}
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv
}
