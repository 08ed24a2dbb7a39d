package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxPageBytes = 5 << 20

// ErrBlockedAddress is returned when a page resolves to a loopback, private
// or link-local address.
var ErrBlockedAddress = errors.New("address is not publicly routable")

// carrier-grade NAT, not covered by net.IP.IsPrivate
var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// Page is the readable content of a fetched web page.
type Page struct {
	// URL is the canonical address after redirects and rel=canonical.
	URL   string
	Title string
	Text  string
}

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

type pageFetcher struct {
	client   *http.Client
	chunker  TextChunker
	maxChars int
}

// NewPageFetcher builds a fetcher. Unless allowPrivate is set, every
// connection, redirects included, is checked after DNS resolution and
// refused for non-public addresses.
func NewPageFetcher(timeout time.Duration, maxChars int, allowPrivate bool, chunker TextChunker) PageFetcher {
	dialer := &net.Dialer{Timeout: timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		dialer.Control = refuseNonPublic
		// a proxy would be dialed instead of the target
		transport.Proxy = nil
	}
	transport.DialContext = dialer.DialContext

	return &pageFetcher{
		client:   &http.Client{Timeout: timeout, Transport: transport},
		chunker:  chunker,
		maxChars: maxChars,
	}
}

func refuseNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	case sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// Fetch implements PageFetcher.
func (f *pageFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "resume-studio/1.0 (+summarizer)")
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	final := resp.Request.URL
	body := io.LimitReader(resp.Body, maxPageBytes)

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "text/plain":
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read page: %w", err)
		}
		return &Page{URL: final.String(), Text: f.chunker.Bound(string(raw), f.maxChars)}, nil
	case mediaType != "" && mediaType != "text/html" && mediaType != "application/xhtml+xml":
		return nil, fmt.Errorf("unsupported content type %s", mediaType)
	}

	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	ex := &htmlExtractor{}
	ex.walk(doc)

	page := &Page{
		URL:   final.String(),
		Title: collapseSpaces(ex.title.String()),
		Text:  f.chunker.Bound(ex.text(), f.maxChars),
	}
	if ex.canonical != "" {
		if ref, err := final.Parse(ex.canonical); err == nil && (ref.Scheme == "http" || ref.Scheme == "https") {
			page.URL = ref.String()
		}
	}
	return page, nil
}

type htmlExtractor struct {
	title     strings.Builder
	canonical string
	paras     []string
	current   strings.Builder
}

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Form:     true,
	atom.Iframe:   true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Br: true, atom.Tr: true,
	atom.Blockquote: true, atom.Pre: true, atom.Header: true, atom.Main: true,
}

func (e *htmlExtractor) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch {
		case n.DataAtom == atom.Title:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					e.title.WriteString(c.Data)
				}
			}
			return
		case n.DataAtom == atom.Link && attr(n, "rel") == "canonical":
			e.canonical = strings.TrimSpace(attr(n, "href"))
			return
		case skippedElements[n.DataAtom]:
			return
		case blockElements[n.DataAtom]:
			e.breakParagraph()
			defer e.breakParagraph()
		}
	}

	if n.Type == html.TextNode {
		if n.Parent != nil && n.Parent.DataAtom == atom.Head {
			return
		}
		e.current.WriteString(n.Data)
		e.current.WriteString(" ")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
}

func (e *htmlExtractor) breakParagraph() {
	if p := collapseSpaces(e.current.String()); p != "" {
		e.paras = append(e.paras, p)
	}
	e.current.Reset()
}

func (e *htmlExtractor) text() string {
	e.breakParagraph()
	return strings.Join(e.paras, "\n\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sameDocument reports whether two URLs point at the same page, ignoring
// fragments and a trailing slash.
func sameDocument(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	ua.Fragment, ub.Fragment = "", ""
	return strings.EqualFold(ua.Host, ub.Host) &&
		strings.TrimSuffix(ua.Path, "/") == strings.TrimSuffix(ub.Path, "/") &&
		ua.RawQuery == ub.RawQuery
}
