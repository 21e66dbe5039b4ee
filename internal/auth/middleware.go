package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/oncall-roster/pkg/util"
)

// Gate verifies the shared admin password and guards mutating routes.
type Gate struct {
	passwordHash string
	tokens       *TokenManager
}

// NewGate hashes the configured admin password once at startup.
func NewGate(password string, bcryptCost int, tokens *TokenManager) (*Gate, error) {
	hash, err := HashPassword(password, bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Gate{passwordHash: hash, tokens: tokens}, nil
}

// Login checks the password and issues a session token.
func (g *Gate) Login(password string) (string, error) {
	if err := ComparePassword(g.passwordHash, password); err != nil {
		return "", apperrors.NewUnauthorized("invalid password")
	}
	token, _, err := g.tokens.GenerateToken()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return token, nil
}

// Handle is the Fiber middleware protecting admin routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return apperrors.NewUnauthorized("authorization required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("bearer token required")
	}
	if _, err := g.tokens.ParseToken(strings.TrimSpace(parts[1])); err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}
	return c.Next()
}
