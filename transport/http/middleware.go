package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/service"
)

const (
	sessionKey   = "session"
	requestIDKey = "requestID"

	headerRequestID          = "X-Request-ID"
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// RequestObserver records per-request metrics
type RequestObserver interface {
	HTTPRequest(route, method string, status int, elapsed time.Duration)
}

// RequestLogger tags each request with an id and logs it once it completes
func RequestLogger(log logrus.FieldLogger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(headerRequestID, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if observer != nil {
			observer.HTTPRequest(route, c.Request.Method, status, elapsed)
		}

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// Recovery converts panics into a generic 500 without leaking details
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"panic":      fmt.Sprint(recovered),
		}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// SearchAvailable rejects search calls while the downstream token is missing
func SearchAvailable(searchService *service.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !searchService.Available() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service temporarily unavailable",
				"message": "OSINT API is not configured. Please contact administrator.",
				"reason":  "search_unavailable",
			})
			return
		}
		c.Next()
	}
}

// AuthMiddleware creates middleware that validates bearer tokens. With requireNFT
// only NFT-class sessions pass.
func AuthMiddleware(authService *service.AuthService, requireNFT bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required", "reason": "missing_token"})
			return
		}

		session, err := authService.ValidateAccessToken(c.Request.Context(), auth[7:])
		if err != nil {
			switch {
			case errors.Is(err, core.ErrNotConfigured):
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
			case errors.Is(err, core.ErrTokenMalformed):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid NFT token format", "reason": "malformed_token"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "reason": "invalid_token"})
			}
			return
		}

		if requireNFT && session.Class != core.SessionClassNFT {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "NFT required for access", "reason": "nft_required"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RateLimitMiddleware consumes one request from the session's quota. The
// X-RateLimit headers are attached to allowed and denied responses alike.
func RateLimitMiddleware(limiter *service.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		decision, err := limiter.CheckLimit(c.Request.Context(), *session)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		setRateLimitHeaders(c, decision)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Rate limit exceeded",
				"message":   "Too many requests. Limit resets at " + decision.ResetTime.UTC().Format(time.RFC3339),
				"reason":    "rate_limited",
				"resetTime": decision.ResetTime.UnixMilli(),
			})
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, decision core.RateLimitDecision) {
	c.Header(headerRateLimitLimit, strconv.Itoa(decision.Limit))
	c.Header(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
	c.Header(headerRateLimitReset, strconv.FormatInt(decision.ResetTime.UnixMilli(), 10))
}

func sessionFrom(c *gin.Context) (*core.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := v.(*core.Session)
	return session, ok
}
