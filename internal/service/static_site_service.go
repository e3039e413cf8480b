package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	indexName        = "index.html"
	hostnameCookie   = "__Host-hostname"
	cacheContentTTL  = time.Hour
	cacheAssetsTTL   = 2 * cacheContentTTL
	cacheNotFoundTTL = time.Hour
)

var contentExtensions = map[string]bool{".html": true}

var ErrPurgeUnauthorized = errors.New("Unauthorized")

type StaticSiteConfig struct {
	PurgeToken      string
	MaxCachedBody   int
	DefaultMimeType string
}

type StaticSiteService struct {
	objects   repository.SiteObjectRepository
	redirects repository.RedirectRepository
	cache     repository.ResponseCacheRepository
	logger    logrus.FieldLogger
	config    StaticSiteConfig
}

func NewStaticSiteService(
	objects repository.SiteObjectRepository,
	redirects repository.RedirectRepository,
	cache repository.ResponseCacheRepository,
	logger logrus.FieldLogger,
	config StaticSiteConfig,
) *StaticSiteService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StaticSiteService{
		objects:   objects,
		redirects: redirects,
		cache:     cache,
		logger:    logger,
		config:    config,
	}
}

// SitePage addresses one page of a tenant site after normalisation.
type SitePage struct {
	Origin   string
	Hostname string
	Pathname string
}

// NewSitePage normalises a request. A well-formed __Host-hostname cookie
// overrides the request host and forces https.
func NewSitePage(scheme string, host string, pathname string, cookieHeader string) SitePage {
	origin := &url.URL{Scheme: scheme, Host: host}
	if override := hostnameFromCookie(cookieHeader); override != nil {
		origin = override
	}
	return SitePage{
		Origin:   origin.Scheme + "://" + origin.Host,
		Hostname: origin.Hostname(),
		Pathname: NormalizePathname(pathname),
	}
}

func (p SitePage) ObjectKey() string {
	return p.Hostname + p.Pathname
}

func (p SitePage) CacheKey() string {
	return p.Origin + p.Pathname
}

// Serve renders the page from the cache, the bucket, or the redirect table.
// The boolean result reports a cache hit.
func (s *StaticSiteService) Serve(ctx context.Context, page SitePage) (*entity.CachedResponse, bool, error) {
	log := s.logger.WithField("cache_key", page.CacheKey())
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, page.CacheKey())
		if err != nil {
			log.WithError(err).Warn("read response cache")
		} else if cached != nil {
			return cached, true, nil
		}
	}

	response, ttl, err := s.render(ctx, page)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil && len(response.Body) <= s.maxCachedBody() {
		if err := s.cache.Set(ctx, page.CacheKey(), response, ttl); err != nil {
			log.WithError(err).Warn("write response cache")
		}
	}
	return response, false, nil
}

func (s *StaticSiteService) render(ctx context.Context, page SitePage) (*entity.CachedResponse, time.Duration, error) {
	key := page.ObjectKey()

	object, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("load object %s: %w", key, err)
	}
	if object != nil {
		ttl := CacheTTL(page.Pathname)
		headers := map[string]string{
			"Content-Type":  s.contentType(object),
			"Cache-Control": cacheControl(ttl),
		}
		if object.ETag != "" {
			headers["ETag"] = object.ETag
		}
		if object.LastModified != nil {
			headers["Last-Modified"] = object.LastModified.UTC().Format(http.TimeFormat)
		}
		return &entity.CachedResponse{Status: http.StatusOK, Headers: headers, Body: object.Body}, ttl, nil
	}

	location, err := s.redirects.Find(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("load redirect %s: %w", key, err)
	}
	if location != "" {
		ttl := CacheTTL(location)
		return &entity.CachedResponse{
			Status: http.StatusMovedPermanently,
			Headers: map[string]string{
				"Location":      location,
				"Cache-Control": cacheControl(ttl),
			},
		}, ttl, nil
	}

	return &entity.CachedResponse{
		Status: http.StatusNotFound,
		Headers: map[string]string{
			"Content-Type":  "text/plain; charset=utf-8",
			"Cache-Control": cacheControl(cacheNotFoundTTL),
		},
		Body: []byte("Not found"),
	}, cacheNotFoundTTL, nil
}

// Purge drops the cached rendering of page. It requires a configured purge
// token presented as a bearer credential.
func (s *StaticSiteService) Purge(ctx context.Context, page SitePage, authorization string) (bool, error) {
	token := s.config.PurgeToken
	if token == "" {
		return false, ErrPurgeUnauthorized
	}
	expected := "Bearer " + token
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(authorization))) != 1 {
		return false, ErrPurgeUnauthorized
	}
	if s.cache == nil {
		return false, nil
	}
	removed, err := s.cache.Delete(ctx, page.CacheKey())
	if err != nil {
		return false, fmt.Errorf("purge %s: %w", page.CacheKey(), err)
	}
	return removed, nil
}

func (s *StaticSiteService) contentType(object *entity.SiteObject) string {
	if object.ContentType != "" {
		return object.ContentType
	}
	if guessed := mime.TypeByExtension(path.Ext(object.Key)); guessed != "" {
		return guessed
	}
	if s.config.DefaultMimeType != "" {
		return s.config.DefaultMimeType
	}
	return "application/octet-stream"
}

func (s *StaticSiteService) maxCachedBody() int {
	if s.config.MaxCachedBody > 0 {
		return s.config.MaxCachedBody
	}
	return 1 << 20
}

// NormalizePathname maps a request path to the object path it serves:
// directories and extensionless paths resolve to their index.html.
func NormalizePathname(pathname string) string {
	if pathname == "" {
		return "/" + indexName
	}

	hasLeadingSlash := strings.HasPrefix(pathname, "/")
	hasTrailingSlash := strings.HasSuffix(pathname, "/")
	hasExtension := !hasTrailingSlash && extension(pathname) != ""

	tail := ""
	if hasTrailingSlash {
		tail = indexName
	} else if !hasExtension {
		tail = "/" + indexName
	}

	prefix := ""
	if !hasLeadingSlash {
		prefix = "/"
	}
	return prefix + pathname + tail
}

// CacheTTL is one hour for content pages and two hours for assets.
func CacheTTL(pathname string) time.Duration {
	if contentExtensions[extension(pathname)] {
		return cacheContentTTL
	}
	return cacheAssetsTTL
}

func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))
}

// extension returns everything from the first dot of the last path segment.
func extension(pathname string) string {
	segment := pathname
	if index := strings.LastIndex(pathname, "/"); index >= 0 {
		segment = pathname[index+1:]
	}
	if dot := strings.Index(segment, "."); dot >= 0 {
		return segment[dot:]
	}
	return ""
}

func hostnameFromCookie(header string) *url.URL {
	if header == "" {
		return nil
	}
	request := http.Request{Header: http.Header{"Cookie": []string{header}}}
	cookie, err := request.Cookie(hostnameCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	decoded, err := url.PathUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	parsed, err := url.Parse("https://" + decoded)
	if err != nil || parsed.Host == "" {
		return nil
	}
	return &url.URL{Scheme: "https", Host: parsed.Host}
}
