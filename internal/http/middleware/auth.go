package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
)

const claimsKey = "auth_claims"

const (
	RoleAdmin   = "admin"
	RoleAgency  = "agency"
	// RolePayment is the payment collaborator confirming captured bookings.
	RolePayment = "payment"
)

// Claims are issued by the account service; this API only verifies them.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	AgencyID int64  `json:"agency_id"`
	jwt.RegisteredClaims
}

// AuthRequired verifies an HS256 bearer token.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || len(secret) == 0 {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			abort(c, http.StatusUnauthorized, "unauthorized", msg)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing credentials")
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden", "role not allowed")
	}
}

func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if cl, ok := v.(*Claims); ok {
			return cl
		}
	}
	return nil
}

// Initiator maps the caller to a cancellation initiator. Admins act for
// every agency.
func Initiator(c *gin.Context) domain.Initiator {
	claims := GetClaims(c)
	switch {
	case claims == nil:
		return domain.Customer
	case claims.Role == RoleAdmin:
		return domain.Initiator{Agency: true}
	case claims.Role == RoleAgency:
		return domain.Initiator{Agency: true, AgencyID: claims.AgencyID}
	}
	return domain.Customer
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}
