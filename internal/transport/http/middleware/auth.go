package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// PhoneKey is the gin context key holding the authenticated phone number.
const PhoneKey = "phone"

const (
	errTokenMissing = "token missing"
	errTokenInvalid = "Token is invalid or expired"
)

// tokenDecoder is the subset of jwt.Issuer the middleware needs.
type tokenDecoder interface {
	Decode(signed string) (string, error)
}

// BearerAuth validates the Authorization bearer token and sets the owner's
// phone number in the gin context. Failures are client errors, matching the
// rest of the auth surface.
func BearerAuth(decoder tokenDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": errTokenMissing})
			return
		}

		phone, err := decoder.Decode(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": errTokenInvalid})
			return
		}

		c.Set(PhoneKey, phone)
		c.Next()
	}
}
