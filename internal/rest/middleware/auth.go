package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/package-likes/domain"
)

const callerKey = "caller"

// Claims are the session claims issued by the login flow.
// Scope is a space separated list, Subject is the caller's DID.
type Claims struct {
	Scope    string `json:"scope"`
	PDS      string `json:"pds"`
	PDSToken string `json:"pds_token"`
	jwt.RegisteredClaims
}

// ToCaller: Claims -> Domain
func (c Claims) ToCaller() domain.Caller {
	return domain.Caller{
		DID:         c.Subject,
		Scopes:      strings.Fields(c.Scope),
		PDSHost:     c.PDS,
		AccessToken: c.PDSToken,
	}
}

// AuthMiddleware reads an optional bearer token. A request without one goes on anonymously,
// a request with a bad one is rejected.
func AuthMiddleware(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		claims := Claims{}
		parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			logrus.Warnf("rejected bearer token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}

		c.Set(callerKey, claims.ToCaller())
		c.Next()
	}
}

// RequireScope rejects anonymous callers and callers that were not granted scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}
		if !caller.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller set by AuthMiddleware
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}
