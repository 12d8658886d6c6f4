package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CORSConfig holds the CORS configuration for the API.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to make cross-origin
	// requests. Empty or containing "*" allows all origins.
	AllowedOrigins []string

	// AllowedMethods lists the HTTP methods allowed for cross-origin
	// requests. Default: GET, POST, PUT, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders lists the headers allowed in cross-origin requests.
	// Default: Content-Type, Authorization.
	AllowedHeaders []string

	// AllowCredentials indicates whether requests may include credentials.
	// When true, specific origins must be listed; "*" cannot be echoed.
	AllowCredentials bool

	// MaxAge is how long (in seconds) a preflight result may be cached.
	// Default: 86400 (24 hours).
	MaxAge int
}

// DefaultCORSConfig allows all origins, matching the open-by-default
// behavior expected of a local agent tool. Production deployments should
// set an explicit allow-list.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}

// CORSConfigForOrigins builds a config restricted to the given origins. An
// empty list falls back to the permissive default.
func CORSConfigForOrigins(origins []string) CORSConfig {
	cfg := DefaultCORSConfig()
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	return cfg
}

// allowsAllOrigins reports whether the config is wide open.
func (c *CORSConfig) allowsAllOrigins() bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

// isOriginAllowed checks if the given origin is allowed by the config.
func (c *CORSConfig) isOriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// getAllowOriginValue returns the Access-Control-Allow-Origin header value.
func (c *CORSConfig) getAllowOriginValue(origin string) string {
	// With credentials the specific origin must be echoed, never "*"
	if c.AllowCredentials {
		if c.isOriginAllowed(origin) && origin != "" {
			return origin
		}
		return ""
	}

	if c.allowsAllOrigins() {
		return "*"
	}
	if c.isOriginAllowed(origin) {
		return origin
	}
	return ""
}

// getMethods returns the allowed methods as a comma-separated string.
func (c *CORSConfig) getMethods() string {
	if len(c.AllowedMethods) == 0 {
		return "GET, POST, PUT, DELETE, OPTIONS"
	}
	return strings.Join(c.AllowedMethods, ", ")
}

// getHeaders returns the allowed headers as a comma-separated string.
func (c *CORSConfig) getHeaders() string {
	if len(c.AllowedHeaders) == 0 {
		return "Content-Type, Authorization"
	}
	return strings.Join(c.AllowedHeaders, ", ")
}

// getMaxAge returns the max age as a string.
func (c *CORSConfig) getMaxAge() string {
	if c.MaxAge <= 0 {
		return "86400"
	}
	return strconv.Itoa(c.MaxAge)
}

// accessMiddleware assigns each request an ID, logs the request once it
// finishes and records the API metrics.
func (a *API) accessMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(rec, r)

		duration := time.Since(start)
		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}

		a.log.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", duration,
		)
		if a.metricsRegistry != nil {
			a.metricsRegistry.RecordAPIRequest(r.Method, pattern, rec.status, duration.Seconds())
		}
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
