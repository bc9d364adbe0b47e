package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

const recentActivityLimit = 10

var errUserNotFound = apperrors.NewNotFoundMessage("User not found")

// UserService covers self-service profile management and user administration.
type UserService struct {
	store      repository.Store
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles the collaborators of UserService.
type UserDependencies struct {
	Store  repository.Store
	Logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	return &UserService{
		store:      deps.Store,
		bcryptCost: cfg.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Profile is a user together with their enrollments.
type Profile struct {
	User        *domain.User
	Enrollments []domain.Enrollment
}

// ProfileUpdate holds the self-editable fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Title          *string
	Bio            *string
	Avatar         *string
	Skills         *[]domain.Skill
	Certifications *[]domain.Certification
}

// AdminUserUpdate holds the fields an administrator may change.
type AdminUserUpdate struct {
	Name  *string
	Email *string
	Role  *domain.Role
}

// UserQuery filters the administrative user listing.
type UserQuery struct {
	Role   domain.Role
	Search string
	Page   int
	Limit  int
}

// Profile returns the user and their enrollments.
func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, errUserNotFound)
	}
	enrollments, err := s.store.Enrollments().ListByUser(ctx, userID)
	if err != nil {
		return nil, repoError(err, nil)
	}
	return &Profile{User: user.Sanitized(), Enrollments: enrollments}, nil
}

// UpdateProfile applies a partial profile update. Only the supplied fields
// are written.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	user, err := s.patchUser(ctx, userID, repository.UserPatch{
		Name:           trimmed(in.Name),
		Email:          in.Email,
		Title:          in.Title,
		Bio:            in.Bio,
		Avatar:         in.Avatar,
		Skills:         in.Skills,
		Certifications: in.Certifications,
	})
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return repoError(err, errUserNotFound)
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("Current password is incorrect")
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.store.Users().SetPassword(ctx, userID, hash); err != nil {
		return repoError(err, errUserNotFound)
	}
	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// Courses returns the caller's enrollments, newest first.
func (s *UserService) Courses(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, repoError(err, errUserNotFound)
	}
	enrollments, err := s.store.Enrollments().ListByUser(ctx, userID)
	return enrollments, repoError(err, nil)
}

// Activities returns the caller's most recent activity entries.
func (s *UserService) Activities(ctx context.Context, userID string) ([]domain.Activity, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, repoError(err, errUserNotFound)
	}
	activities, err := s.store.Activities().ListByUser(ctx, userID, recentActivityLimit)
	return activities, repoError(err, nil)
}

// List returns a page of users for administrators.
func (s *UserService) List(ctx context.Context, q UserQuery) ([]domain.User, Pagination, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, Pagination{}, apperrors.NewValidationError("Invalid role", map[string]any{"role": q.Role})
	}
	page, limit, offset, err := pageWindow(q.Page, q.Limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	users, total, err := s.store.Users().List(ctx, repository.UserFilter{
		Role:   q.Role,
		Search: strings.TrimSpace(q.Search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, Pagination{}, repoError(err, nil)
	}
	return sanitizeUsers(users), newPagination(page, limit, total), nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, errUserNotFound)
	}
	return user.Sanitized(), nil
}

// AdminUpdate changes name, email or role of any user.
func (s *UserService) AdminUpdate(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": *in.Role})
	}
	user, err := s.patchUser(ctx, id, repository.UserPatch{
		Name:  trimmed(in.Name),
		Email: in.Email,
		Role:  in.Role,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin", zap.String("user_id", id), zap.String("role", string(user.Role)))
	return user.Sanitized(), nil
}

// Delete removes a user. Users who still instruct courses cannot be removed.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.store.Users().Delete(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		return apperrors.NewConflict("User still owns courses", map[string]any{"userId": id})
	}
	if err != nil {
		return repoError(err, errUserNotFound)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) patchUser(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	user, err := s.store.Users().Patch(ctx, id, patch)
	if errors.Is(err, repository.ErrDuplicate) && patch.Email != nil {
		return nil, apperrors.NewValidationError("Email already exists", map[string]any{"email": domain.NormalizeEmail(*patch.Email)})
	}
	if err != nil {
		return nil, repoError(err, errUserNotFound)
	}
	return user, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
