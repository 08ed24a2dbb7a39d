package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title> Go 1.25 Released </title>
  <style>body { color: red; }</style>
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/blog">Blog</a></nav>
  <article>
    <h1>Go 1.25 is out</h1>
    <p>The Go team is happy to announce
       a new release.</p>
    <p>It includes <b>many</b> improvements.</p>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func TestPageFetcherExtractsReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, 10000, true, NewTextChunker())
	page, err := f.Fetch(context.Background(), srv.URL+"/article")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/article", page.URL)
	assert.Equal(t, "Go 1.25 Released", page.Title)
	assert.Equal(t, "Go 1.25 is out\n\nThe Go team is happy to announce a new release.\n\nIt includes many improvements.", page.Text)
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "Copyright")
}

func TestPageFetcherFollowsRedirectsAndCanonical(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new?utm=1", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><link rel="canonical" href="/canonical"></head><body><p>Moved.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, 10000, true, NewTextChunker())
	page, err := f.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/canonical", page.URL)
	assert.Equal(t, "Moved.", page.Text)
}

func TestPageFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		}
	}))
	defer srv.Close()

	f := NewPageFetcher(50*time.Millisecond, 10000, true, NewTextChunker())

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/image")
	assert.ErrorContains(t, err, "unsupported content type")

	_, err = f.Fetch(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestPageFetcherBoundsText(t *testing.T) {
	var body strings.Builder
	body.WriteString("<html><body>")
	for i := 0; i < 200; i++ {
		body.WriteString("<p>" + strings.Repeat("lorem ipsum ", 10) + "</p>")
	}
	body.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body.String()))
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, 2000, true, NewTextChunker())
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(page.Text)), 2000)
	assert.True(t, strings.HasPrefix(page.Text, "lorem ipsum"))
}

func TestSameDocument(t *testing.T) {
	assert.True(t, sameDocument("https://example.com/a/", "https://EXAMPLE.com/a#top"))
	assert.False(t, sameDocument("https://example.com/a", "https://example.com/b"))
	assert.False(t, sameDocument("https://example.com/a?x=1", "https://example.com/a"))
}

func TestPageFetcherRefusesNonPublicAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("internal metadata token"))
	}))
	defer srv.Close()

	f := NewPageFetcher(time.Second, 1000, false, NewTextChunker())
	page, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, page)
	assert.True(t, errors.Is(err, ErrBlockedAddress), "got %v", err)
}

func TestIsPublicIP(t *testing.T) {
	tests := []struct {
		ip     string
		public bool
	}{
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"100.64.0.1", false},
		{"::ffff:127.0.0.1", false},
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.public, isPublicIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestRefuseNonPublic(t *testing.T) {
	assert.ErrorIs(t, refuseNonPublic("tcp", "169.254.169.254:80", nil), ErrBlockedAddress)
	assert.NoError(t, refuseNonPublic("tcp", "93.184.216.34:443", nil))
}
