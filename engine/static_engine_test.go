package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNeedsRender(t *testing.T) {
	cases := []struct {
		name string
		html string
		want bool
	}{
		{"server rendered", `<html><body>` + strings.Repeat(`<div class="item">content here</div>`, 40) + `</body></html>`, false},
		{"react root", `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`, true},
		{"next shell", `<html><body><div id="__next"></div></body></html>`, true},
		{"noscript warning", `<html><body>You need to enable JavaScript to run this app.</body></html>`, true},
		{"near-empty body", `<html><body><div></div></body></html>`, true},
	}
	for _, tc := range cases {
		if got := needsRender(tc.html); got != tc.want {
			t.Errorf("%s: needsRender = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStaticEngine_Open(t *testing.T) {
	page := `<html><head><title>t</title></head><body>` +
		`<ul><li class="row">one</li><li class="row">two</li><li class="row">three</li></ul>` +
		strings.Repeat(`<p>server-rendered filler paragraph with real content</p>`, 20) +
		`</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	// Plain HTTP here; the utls dialer only engages for TLS connections.
	eng := NewStaticEngine()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := eng.Open(ctx, &OpenRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	if sess.Engine != "static" {
		t.Errorf("engine = %q", sess.Engine)
	}
	rows, err := sess.Page.Query("li.row")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want 3", len(rows))
	}
}

func TestStaticEngine_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not":"html"}`))
	}))
	defer srv.Close()

	eng := NewStaticEngine()
	if _, err := eng.Open(context.Background(), &OpenRequest{URL: srv.URL}); err == nil {
		t.Fatal("expected an error for a JSON response")
	}
}

func TestStaticEngine_WaitSelector(t *testing.T) {
	page := `<html><body><div class="ready">yes</div>` +
		strings.Repeat(`<p>server-rendered filler paragraph with real content</p>`, 20) +
		`</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	eng := NewStaticEngine()
	if _, err := eng.Open(context.Background(), &OpenRequest{URL: srv.URL, WaitSelector: "div.ready"}); err != nil {
		t.Errorf("present wait selector should succeed: %v", err)
	}
	if _, err := eng.Open(context.Background(), &OpenRequest{URL: srv.URL, WaitSelector: "div.never"}); err == nil {
		t.Error("missing wait selector should fail so the dispatcher escalates")
	}
}