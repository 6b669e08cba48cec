package site

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sylinko/everywhere-web/i18n"
	"go.uber.org/zap"
)

var reservedPrefixes = []string{
	"/api/",
	"/_next/static/",
	"/_next/image",
	"/og/",
}

var reservedFiles = map[string]bool{
	"/api":         true,
	"/favicon.ico": true,
	"/robots.txt":  true,
	"/sitemap.xml": true,
}

var staticExtensions = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
	".css": true, ".js": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
}

// IsReserved reports whether a path bypasses language prefixing: API
// endpoints, static assets, image endpoints and well-known root files.
func IsReserved(p string) bool {
	if reservedFiles[p] {
		return true
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// RedirectTarget returns the language prefixed location for a bare path, or
// ok=false when the path is reserved or already carries a supported
// language segment.
func RedirectTarget(registry *i18n.Registry, p, rawQuery, acceptLanguage string) (target string, ok bool) {
	if p == "" {
		p = "/"
	}
	if IsReserved(p) {
		return "", false
	}
	if _, prefixed := registry.Split(p); prefixed {
		return "", false
	}
	lang := registry.Negotiate(acceptLanguage)
	target = "/" + string(lang)
	if p != "/" {
		target += p
	}
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target, true
}

// LocaleRedirect guarantees that every served page path starts with a
// supported language segment.
func LocaleRedirect(registry *i18n.Registry, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, ok := RedirectTarget(registry, r.URL.EscapedPath(), r.URL.RawQuery, r.Header.Get("Accept-Language"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			logger.Debug("redirecting bare path", zap.String("path", r.URL.Path), zap.String("target", target))
			w.Header().Add("Vary", "Accept-Language")
			w.Header().Set("Location", target)
			w.WriteHeader(http.StatusTemporaryRedirect)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLog logs one line per request.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
