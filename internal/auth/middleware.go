package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

const userKey = "auth_user"

// AuthMiddleware validates bearer tokens and loads the calling user.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return apperrors.NewUnauthorized("Not authorized, no token")
	}
	user, err := m.resolve(c, token)
	if err != nil {
		return err
	}
	setUser(c, user)
	return c.Next()
}

// Optional resolves a valid bearer token when present and otherwise lets
// the request through anonymously.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if token, ok := bearerToken(c); ok {
		if user, err := m.resolve(c, token); err == nil {
			setUser(c, user)
		}
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx, token string) (*domain.User, error) {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Not authorized")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("User no longer exists")
		}
		return nil, apperrors.NewStorageError(err)
	}
	return user.Sanitized(), nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setUser(c *fiber.Ctx, user *domain.User) {
	c.Locals(userKey, user)
	c.Locals(observability.UserIDKey, user.ID)
}

// CurrentUser retrieves the authenticated user, if any.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userKey).(*domain.User)
	return user, ok && user != nil
}
