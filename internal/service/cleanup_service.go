package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type cleanupUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListIncomplete(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Cleanup actions.
const (
	CleanupActionIncomplete = "cleanup_incomplete"
	CleanupActionDeleteUser = "delete_user"
)

// CleanupRequest selects a maintenance action.
type CleanupRequest struct {
	Action string `json:"action" validate:"required,oneof=cleanup_incomplete delete_user"`
	UserID string `json:"user_id,omitempty"`
}

// CleanupResult reports what the action removed.
type CleanupResult struct {
	Deleted int      `json:"deleted"`
	Details []string `json:"details"`
}

// CleanupService removes users whose domain record is missing, and deletes
// individual users on request. Provisioning is transactional, so incomplete
// users only appear through out-of-band writes or legacy data.
type CleanupService struct {
	users     cleanupUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCleanupService constructs the service.
func NewCleanupService(users cleanupUserRepository, validate *validator.Validate, logger *zap.Logger) *CleanupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{users: users, validator: validate, logger: logger}
}

// Run executes the requested maintenance action for an administrator.
func (s *CleanupService) Run(ctx context.Context, callerID string, req CleanupRequest) (*CleanupResult, error) {
	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "calling user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calling user")
	}
	if caller.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can run cleanup")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cleanup payload")
	}

	switch req.Action {
	case CleanupActionIncomplete:
		return s.cleanupIncomplete(ctx)
	case CleanupActionDeleteUser:
		return s.deleteUser(ctx, callerID, req.UserID)
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown cleanup action")
}

func (s *CleanupService) cleanupIncomplete(ctx context.Context) (*CleanupResult, error) {
	incomplete, err := s.users.ListIncomplete(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incomplete users")
	}

	result := &CleanupResult{Details: []string{}}
	for _, user := range incomplete {
		ok, err := s.users.Delete(ctx, user.ID)
		if err != nil {
			s.logger.Warn("failed to delete incomplete user", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		if ok {
			result.Deleted++
			result.Details = append(result.Details, "Deleted: "+user.Email)
		}
	}

	s.logger.Info("incomplete user cleanup finished", zap.Int("deleted", result.Deleted))
	return result, nil
}

func (s *CleanupService) deleteUser(ctx context.Context, callerID, userID string) (*CleanupResult, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id is required for delete_user")
	}
	if userID == callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	ok, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	return &CleanupResult{Deleted: 1, Details: []string{"Deleted: " + user.Email}}, nil
}
