package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxBodyBytes     int64         `json:"max_body_bytes"`
	MaxCountryLength int           `json:"max_country_length"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	EnableHSTS       bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxBodyBytes:     64 << 10,
		MaxCountryLength: 64,
		RequestTimeout:   30 * time.Second,
	}
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)
	countryPattern    = regexp.MustCompile(`^[\p{L} .'-]+$`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// SecurityMiddleware validates and bounds incoming requests
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	defaults := DefaultSecurityConfig()
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.MaxCountryLength <= 0 {
		config.MaxCountryLength = defaults.MaxCountryLength
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	return &SecurityMiddleware{config: config}
}

// Config returns the effective configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

// ValidateIdentifier checks a subject id or catalog key.
func ValidateIdentifier(id string) error {
	if strings.Contains(id, "\x00") || !utf8.ValidString(id) {
		return fmt.Errorf("identifier contains invalid characters")
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("identifier %q must be 1-128 letters, digits or . _ : -", id)
	}
	return nil
}

// SanitizeCountry trims and collapses whitespace in a country filter and
// rejects anything that is not a plausible country name. Empty means no
// filter.
func (sm *SecurityMiddleware) SanitizeCountry(country string) (string, error) {
	country = whitespace.ReplaceAllString(strings.TrimSpace(country), " ")
	if country == "" {
		return "", nil
	}
	if utf8.RuneCountInString(country) > sm.config.MaxCountryLength {
		return "", fmt.Errorf("country exceeds maximum length of %d characters", sm.config.MaxCountryLength)
	}
	if !countryPattern.MatchString(country) {
		return "", fmt.Errorf("country contains invalid characters")
	}
	return country, nil
}

// ValidateParams rejects requests whose named route parameters are not
// valid identifiers.
func (sm *SecurityMiddleware) ValidateParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		invalid := map[string]string{}
		for _, name := range names {
			value := c.Param(name)
			if value == "" {
				continue
			}
			if err := ValidateIdentifier(value); err != nil {
				invalid[name] = err.Error()
			}
		}
		if len(invalid) > 0 {
			apperrors.Respond(c, apperrors.NewValidationErrorWithMap(invalid))
			return
		}
		c.Next()
	}
}

// ValidateCountryQuery sanitizes the country query parameter and stores the
// result under "country".
func (sm *SecurityMiddleware) ValidateCountryQuery(c *gin.Context) {
	country, err := sm.SanitizeCountry(c.Query("country"))
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid country", err.Error()))
		return
	}
	c.Set("country", country)
	c.Next()
}

// ValidateContentType requires JSON bodies on write requests
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "unsupported content type",
		})
		return
	}

	c.Next()
}

// LimitBody caps the request body size
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}
