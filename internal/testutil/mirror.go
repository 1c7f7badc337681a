// Package testutil provides HTTP fakes of the mirror and the Bluesky PDS
// for tests.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Item is one timeline entry served by MockMirror. Video wins over Image
// when both are set, as on a real mirror page.
type Item struct {
	Caption string
	Image   string
	Video   string
}

// Render returns the item's timeline markup
func (it Item) Render() string {
	var b strings.Builder
	b.WriteString(`<div class="timeline-item">`)
	b.WriteString(`<div class="tweet-header"><a class="username" href="/someone">@someone</a></div>`)
	fmt.Fprintf(&b, `<div class="tweet-content media-body" dir="auto">%s</div>`, html.EscapeString(it.Caption))
	if it.Video != "" || it.Image != "" {
		b.WriteString(`<div class="attachments">`)
		if it.Video != "" {
			fmt.Fprintf(&b, `<div class="gallery-video"><div class="attachment video-container"><video controls=""><source src="%s" type="video/mp4"></video></div></div>`, it.Video)
		}
		if it.Image != "" {
			fmt.Fprintf(&b, `<div class="attachment image"><a class="still-image" href="%s"><img src="%s" alt=""></a></div>`, it.Image, it.Image)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// RenderPage wraps items in a listing page
func RenderPage(items ...Item) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>someone | nitter</title></head><body><div class="container"><div class="timeline">`)
	for _, it := range items {
		b.WriteString(it.Render())
	}
	if len(items) == 0 {
		b.WriteString(`<div class="timeline-footer"><h2 class="timeline-end">No more items</h2></div>`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// MockMirror simulates a Nitter instance: account listing pages plus
// /pic/ and /video/ media paths
type MockMirror struct {
	server       *httptest.Server
	mu           sync.RWMutex
	pages        map[int][]Item
	pageErrors   map[int]int
	requestCount int32
	mediaCount   int32
	lastAgent    string
}

// NewMockMirror starts a mirror whose account has the given pages, keyed
// from 1. Pages past the last one are empty.
func NewMockMirror(t *testing.T, pages ...[]Item) *MockMirror {
	m := &MockMirror{
		pages:      make(map[int][]Item),
		pageErrors: make(map[int]int),
	}
	for i, items := range pages {
		m.pages[i+1] = items
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pic/", m.handleMedia)
	mux.HandleFunc("/video/", m.handleMedia)
	mux.HandleFunc("/", m.handleListing)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

// URL returns the mirror base URL
func (m *MockMirror) URL() string {
	return m.server.URL
}

// SetPage replaces the items of one page
func (m *MockMirror) SetPage(page int, items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = items
}

// SetPageError makes a page answer with the given status
func (m *MockMirror) SetPageError(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageErrors[page] = status
}

// RequestCount returns the number of listing requests served
func (m *MockMirror) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// MediaCount returns the number of media downloads served
func (m *MockMirror) MediaCount() int {
	return int(atomic.LoadInt32(&m.mediaCount))
}

// LastUserAgent returns the User-Agent of the latest request
func (m *MockMirror) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAgent
}

func (m *MockMirror) handleListing(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	if !strings.HasSuffix(r.URL.Path, "/search") {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("p"))
	if err != nil || page < 1 {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.lastAgent = r.Header.Get("User-Agent")
	status := m.pageErrors[page]
	items := m.pages[page]
	m.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(RenderPage(items...)))
}

func (m *MockMirror) handleMedia(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.mediaCount, 1)

	if strings.HasPrefix(r.URL.Path, "/video/") {
		w.Header().Set("Content-Type", "video/mp4")
	} else {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Write([]byte("media" + r.URL.Path))
}
