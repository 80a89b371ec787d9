package csrf

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Pair is the header name and token to attach to mutating requests.
type Pair struct {
	Header string
	Token  string
}

// Valid reports whether both halves are present.
func (p Pair) Valid() bool {
	return strings.TrimSpace(p.Header) != "" && strings.TrimSpace(p.Token) != ""
}

// Apply sets the header on req when the pair is valid and is a no-op otherwise.
func (p Pair) Apply(req *http.Request) {
	if p.Valid() {
		req.Header.Set(p.Header, p.Token)
	}
}

// Source yields the CSRF pair. ok=false means "send no CSRF header".
type Source interface {
	Pair(ctx context.Context) (Pair, bool)
}

// Static always returns the same pair.
type Static Pair

func (s Static) Pair(context.Context) (Pair, bool) {
	p := Pair(s)
	return p, p.Valid()
}

// None never yields a pair.
type None struct{}

func (None) Pair(context.Context) (Pair, bool) { return Pair{}, false }

// PageSource reads the pair from the `_csrf_header` and `_csrf` meta tags of
// a server-rendered page. The first pair found is cached; failures are not,
// so the next mutating request tries again.
type PageSource struct {
	client *http.Client
	url    string

	mu     sync.Mutex
	cached *Pair
}

func NewPageSource(client *http.Client, pageURL string) *PageSource {
	return &PageSource{client: client, url: pageURL}
}

func (s *PageSource) Pair(ctx context.Context) (Pair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, true
	}
	p, err := s.fetch(ctx)
	if err != nil || !p.Valid() {
		return Pair{}, false
	}
	s.cached = &p
	return p, true
}

// Reset drops the cached pair, e.g. after the session changed.
func (s *PageSource) Reset() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *PageSource) fetch(ctx context.Context) (Pair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Pair{}, err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := s.client.Do(req)
	if err != nil {
		return Pair{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Pair{}, fmt.Errorf("csrf page: status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Pair{}, fmt.Errorf("csrf page: %w", err)
	}
	return FromDocument(doc), nil
}

// FromDocument extracts the meta pair from an already parsed page.
func FromDocument(doc *goquery.Document) Pair {
	header, _ := doc.Find(`meta[name="_csrf_header"]`).First().Attr("content")
	token, _ := doc.Find(`meta[name="_csrf"]`).First().Attr("content")
	return Pair{Header: strings.TrimSpace(header), Token: strings.TrimSpace(token)}
}
