// auth/auth.go
package auth

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const Header = "X-Lumi-Token"

// Middleware rejects requests whose X-Lumi-Token does not match the bcrypt
// tokenHash. Browsers cannot set headers on a websocket upgrade, so a
// "token" query parameter is accepted too. An empty hash disables the check.
func Middleware(tokenHash string) fiber.Handler {
	if tokenHash == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	hash := []byte(tokenHash)

	return func(c *fiber.Ctx) error {
		token := c.Get(Header)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		return c.Next()
	}
}

// HashToken returns the value to put in LUMI_TOKEN_HASH for token.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
