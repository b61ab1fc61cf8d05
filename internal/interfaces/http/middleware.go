package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

type Middleware struct {
	jwtSecret  []byte
	cookieName string
	corsOrigin string
	limiters   []*infrastructure.UserLimiter
	mu         sync.Mutex
	log        zerolog.Logger
}

// NewMiddleware builds the shared middleware. Credentialed CORS needs an
// explicit origin, so a "*" origin is dropped and cross-origin requests get
// no CORS headers.
func NewMiddleware(secret, cookieName, corsOrigin string, log zerolog.Logger) *Middleware {
	if corsOrigin == "*" {
		log.Warn().Msg("CORS_ORIGIN=* cannot be used with cookie sessions, cross-origin requests are disabled")
		corsOrigin = ""
	}
	return &Middleware{
		jwtSecret:  []byte(secret),
		cookieName: cookieName,
		corsOrigin: corsOrigin,
		log:        log,
	}
}

// Close stops the background sweeps of the per-user rate limiters.
func (m *Middleware) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.limiters {
		l.Close()
	}
}

// AuthRequired accepts the session cookie or an "Authorization: Bearer" token.
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, _ := c.Cookie(m.cookieName)
		if tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session", "code": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		userID, idOK := claims["user_id"].(float64) // JWT numbers are float64
		if !ok || !idOK || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session", "code": "unauthorized"})
			return
		}
		role, _ := claims["role"].(string)

		c.Set("user_id", int64(userID))
		c.Set("role", role)
		c.Next()
	}
}

// AdminRequired must follow AuthRequired.
func (m *Middleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != entities.RoleAdmin {
			c.Error(usecases.ErrForbidden("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitPerUser limits requests based on "user_id" from context (must follow AuthRequired)
func (m *Middleware) RateLimitPerUser(r rate.Limit, b int) gin.HandlerFunc {
	limiter := infrastructure.NewUserLimiter(r, b, 10*time.Minute)
	m.mu.Lock()
	m.limiters = append(m.limiters, limiter)
	m.mu.Unlock()

	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user identity not found for rate limiting", "code": "unauthorized"})
			return
		}

		if !limiter.Allow(userID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "rate_limited"})
			return
		}

		c.Next()
	}
}

// CORSMiddleware allows credentialed requests from the configured front-end origin.
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && m.corsOrigin != "" && origin == m.corsOrigin {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Cron-Secret, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// CronSecret guards the external cron entrypoint. An empty secret leaves it open.
func (m *Middleware) CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Cron-Secret")), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret", "code": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestID tags each request with an id, reusing one sent by a proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one line per request.
func (m *Middleware) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := m.log.Info()
		if status >= http.StatusInternalServerError {
			ev = m.log.Error()
		}
		ev.Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int64("user_id", getUserID(c)).
			Msg("request")
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
func (m *Middleware) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := usecases.AsAppError(err); ok {
			if appErr.Status >= http.StatusInternalServerError {
				m.log.Warn().Err(err).Str("request_id", c.GetString("request_id")).Msg("request failed")
			}
			c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}

		m.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal_error"})
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Writer.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'")

		c.Next()
	}
}

// RequestSizeLimiter limits request body size to prevent DoS
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
