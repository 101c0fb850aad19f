package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/harvest/memdom"
)

// StaticEngine fetches the page over plain HTTP with a Chrome-like TLS
// fingerprint and parses it into a static host tree. It is the fastest
// path, suitable for server-rendered pages that need no JavaScript.
type StaticEngine struct {
	client *http.Client
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. Computed once at init time and reused for every
// connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Fallback: if spec generation fails, connections use the zero
		// spec and fail loudly at handshake time.
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2, which Go's http.Transport cannot handle
	// over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewStaticEngine creates a StaticEngine with a Chrome-like TLS fingerprint.
func NewStaticEngine() *StaticEngine {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("static_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &StaticEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (e *StaticEngine) Name() string { return "static" }

func (e *StaticEngine) Open(ctx context.Context, req *OpenRequest) (*Session, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("static_engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("static_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	// 10 MB body cap to prevent unbounded memory use.
	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("static_engine: read body: %w", err)
	}
	bodyStr := string(body)

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, fmt.Errorf("static_engine: non-html or error status %d (content-type: %s)", resp.StatusCode, ct)
	}

	// Fail fast on JS-shell pages so the dispatcher escalates to the
	// browser instead of extracting from an empty skeleton.
	if needsRender(bodyStr) {
		return nil, fmt.Errorf("static_engine: page appears to require javascript rendering")
	}

	finalURL := resp.Request.URL.String()
	page, err := memdom.Load(bodyStr, memdom.WithBaseURL(finalURL))
	if err != nil {
		return nil, fmt.Errorf("static_engine: parse html: %w", err)
	}

	if req.WaitSelector != "" {
		// A static document cannot converge further: the selector either
		// matches now or never will.
		els, err := page.Query(req.WaitSelector)
		if err != nil || len(els) == 0 {
			return nil, fmt.Errorf("static_engine: wait selector %q not present", req.WaitSelector)
		}
	}

	return NewSession(page, e.Name(), finalURL, nil), nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// jsShellMarkers appear in pages whose content only exists after hydration.
var jsShellMarkers = []string{
	`id="__next"></div>`,
	`id="root"></div>`,
	`id="app"></div>`,
	"window.__NUXT__",
	"You need to enable JavaScript to run this app",
}

// needsRender guesses whether the fetched HTML is an empty client-side
// shell. Cheap string checks only; the browser engine is the safety net
// for anything this misses.
func needsRender(htmlStr string) bool {
	for _, marker := range jsShellMarkers {
		if strings.Contains(htmlStr, marker) {
			return true
		}
	}
	// A body with almost no markup is a strong hydration signal.
	if i := strings.Index(htmlStr, "<body"); i >= 0 {
		rest := htmlStr[i:]
		if j := strings.Index(rest, "</body>"); j >= 0 && j < 512 {
			return true
		}
	}
	return false
}
