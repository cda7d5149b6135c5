// Package iconcache downloads the remote images referenced by the uses page
// into the distribution tree and rewrites the page to the local copies.
package iconcache

import (
	"context"
	"crypto/sha1" // #nosec G505 -- content-addressed file names, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

const hostPlaceholder = "{host}"

var contentTypeExt = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/jpg":                ".jpg",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/gif":                ".gif",
	"image/avif":               ".avif",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Result summarizes one cache run.
type Result struct {
	Total   int
	Cached  int
	Failed  int
	Changed bool
	Skipped bool
}

// Cache fetches icons for one page.
type Cache struct {
	page      string
	dir       string
	hrefBase  string
	fallback  string
	limit     int
	userAgent string
	client    *http.Client
	recorder  metrics.Recorder
}

// New builds a cache for the uses page below outRoot.
func New(cfg *config.Config, outRoot string) *Cache {
	if outRoot == "" {
		outRoot = cfg.OutPath("")
	}
	limit := cfg.Icons.Concurrency
	if limit < 1 {
		limit = 1
	}
	return &Cache{
		page:      filepath.Join(outRoot, cfg.Icons.Page),
		dir:       filepath.Join(outRoot, cfg.Icons.Dir),
		hrefBase:  "/" + strings.Trim(filepath.ToSlash(cfg.Icons.Dir), "/") + "/",
		fallback:  cfg.Icons.FallbackURL,
		limit:     limit,
		userAgent: cfg.Icons.UserAgent,
		client:    &http.Client{Timeout: cfg.Icons.Timeout},
		recorder:  metrics.NoopRecorder{},
	}
}

// WithClient replaces the HTTP client.
func (c *Cache) WithClient(client *http.Client) *Cache {
	if client != nil {
		c.client = client
	}
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Cache) WithRecorder(r metrics.Recorder) *Cache {
	if r != nil {
		c.recorder = r
	}
	return c
}

// Run caches every remote image on the page. A missing page is reported and
// skipped. When no download succeeds the page is left untouched.
func (c *Cache) Run(ctx context.Context) (Result, error) {
	raw, err := os.ReadFile(c.page)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Uses page not found, skipping icon cache", logfields.Path(c.page))
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return Result{}, foundationerrors.FileSystemError("failed to read uses page").
			WithCause(err).
			WithContext("path", c.page).
			Build()
	}

	doc := string(raw)
	srcs := RemoteImageSources(doc)
	res := Result{Total: len(srcs)}
	if len(srcs) == 0 {
		slog.Info("✔ uses icons: no remote images found", logfields.Path(c.page))
		return res, nil
	}

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return res, foundationerrors.FileSystemError("failed to create icon directory").
			WithCause(err).
			WithContext("path", c.dir).
			Build()
	}

	var (
		mu      sync.Mutex
		mapping = make(map[string]string, len(srcs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for _, src := range srcs {
		g.Go(func() error {
			name, err := c.cacheOne(gctx, src)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.recorder.IncIconFetch(metrics.IconFetchFailed)
				slog.Warn("Failed to cache icon", logfields.URL(src), logfields.Error(err))
				return nil
			}
			mu.Lock()
			mapping[src] = c.hrefBase + name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	res.Cached = len(mapping)
	res.Failed = res.Total - res.Cached
	if res.Cached == 0 {
		slog.Warn("Uses icon cache skipped, all downloads failed", logfields.Count(res.Total))
		return res, nil
	}

	updated := doc
	for _, src := range srcs {
		local, ok := mapping[src]
		if !ok {
			continue
		}
		updated = strings.ReplaceAll(updated, src, local)
		if escaped := html.EscapeString(src); escaped != src {
			updated = strings.ReplaceAll(updated, escaped, local)
		}
	}
	if updated != doc {
		if err := os.WriteFile(c.page, []byte(updated), 0o600); err != nil {
			return res, foundationerrors.FileSystemError("failed to write uses page").
				WithCause(err).
				WithContext("path", c.page).
				Build()
		}
		res.Changed = true
	}

	msg := fmt.Sprintf("✔ uses icons: cached %d/%d remote images", res.Cached, res.Total)
	if res.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", res.Failed)
	}
	slog.Info(msg, logfields.Path(c.page))
	return res, nil
}

// cacheOne downloads src, falling back to the favicon service for the same
// host, and returns the stored file name.
func (c *Cache) cacheOne(ctx context.Context, src string) (string, error) {
	target := normalizeURL(src)
	name, err := c.store(ctx, target)
	if err == nil {
		c.recorder.IncIconFetch(metrics.IconFetchPrimary)
		return name, nil
	}
	if c.isFallback(target) {
		return "", err
	}
	fb := c.fallbackURL(target)
	if fb == "" {
		return "", err
	}
	name, fbErr := c.store(ctx, fb)
	if fbErr != nil {
		return "", fmt.Errorf("%w; fallback %s: %w", err, fb, fbErr)
	}
	c.recorder.IncIconFetch(metrics.IconFetchFallback)
	return name, nil
}

func (c *Cache) store(ctx context.Context, target string) (string, error) {
	body, contentType, err := c.fetch(ctx, target)
	if err != nil {
		return "", err
	}
	name, err := FileName(target, Extension(target, contentType))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(c.dir, name), body, 0o600); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Cache) fetch(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("request failed: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Cache) fallbackURL(target string) string {
	if c.fallback == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ReplaceAll(c.fallback, hostPlaceholder, u.Hostname())
}

// isFallback reports whether target already points at the fallback service.
func (c *Cache) isFallback(target string) bool {
	prefix, _, ok := strings.Cut(c.fallback, hostPlaceholder)
	if !ok || prefix == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(target), strings.ToLower(prefix))
}

// RemoteImageSources returns the distinct remote img src values of an HTML
// document in document order.
func RemoteImageSources(doc string) []string {
	z := html.NewTokenizer(strings.NewReader(doc))
	seen := make(map[string]bool)
	var out []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" {
					src := string(val)
					if isRemote(src) && !seen[src] {
						seen[src] = true
						out = append(out, src)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(src, "//")
}

func normalizeURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// Extension picks a file extension from the URL path, then the content type,
// then ".png".
func Extension(target, contentType string) string {
	if u, err := url.Parse(target); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 6 {
			return ext
		}
	}
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if ext, ok := contentTypeExt[strings.ToLower(mediaType)]; ok {
				return ext
			}
		}
	}
	return ".png"
}

// FileName derives a stable name <host>-<base>-<hash><ext> for target.
func FileName(target, ext string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	host := slug(u.Hostname())
	base := slug(strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path)))
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "icon"
	}
	sum := sha1.Sum([]byte(target)) // #nosec G401
	return host + "-" + base + "-" + hex.EncodeToString(sum[:])[:8] + ext, nil
}

func slug(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
