// Package validation holds small input validators shared by the API handlers.
package validation

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20

var (
	mobileRe    = regexp.MustCompile(`^09\d{9}$`)
	linkTokenRe = regexp.MustCompile(`^[a-zA-Z0-9]{8,64}$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// Email reports whether s parses as a bare RFC 5322 address.
func Email(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// Mobile reports whether s looks like an Iranian mobile number (09xxxxxxxxx).
func Mobile(s string) bool {
	return mobileRe.MatchString(s)
}

// LinkToken reports whether s is a well-formed share-link token.
func LinkToken(s string) bool {
	return linkTokenRe.MatchString(s)
}

// Amount reports whether v is a valid positive payment amount.
func Amount(v int64) bool {
	return v > 0
}

// TrimmedNonEmpty reports whether s contains non-whitespace content.
func TrimmedNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
