package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const claimsContextKey = "claims"

// StaffClaims is what the external auth service puts in its access tokens.
// This module only validates and reads them; issuance lives elsewhere.
type StaffClaims struct {
	TenantID       uuid.UUID
	ProfessionalID uuid.UUID
	Role           string
	Name           string
}

func AuthRequired(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid authorization header format",
			})
		}

		claims, err := parseToken(parts[1], jwtSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or expired token",
			})
		}

		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

func parseToken(tokenString, secret string) (*StaffClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	tenantID, err := uuid.Parse(stringClaim(mapClaims, "tenant_id"))
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	professionalID, err := uuid.Parse(stringClaim(mapClaims, "sub"))
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &StaffClaims{
		TenantID:       tenantID,
		ProfessionalID: professionalID,
		Role:           stringClaim(mapClaims, "role"),
		Name:           stringClaim(mapClaims, "name"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func GetClaims(c *fiber.Ctx) *StaffClaims {
	claims, ok := c.Locals(claimsContextKey).(*StaffClaims)
	if !ok {
		return nil
	}
	return claims
}

func RequireRole(requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return Unauthorized("Staff member not found")
		}
		if claims.Role != requiredRole {
			return Forbidden("Insufficient permissions for this operation")
		}
		return c.Next()
	}
}
