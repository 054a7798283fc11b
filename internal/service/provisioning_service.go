package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type provisioningStore interface {
	Provision(ctx context.Context, record *repository.ProvisionRecord) error
}

type provisioningUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type statsInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// RegisterUserRequest is the admin payload for creating a portal user.
// Courses enroll a new student or get assigned to a new instructor,
// depending on the role.
type RegisterUserRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=6"`
	FullName   string          `json:"full_name" validate:"required"`
	Role       models.UserRole `json:"role" validate:"required,oneof=admin staff instructor student"`
	Phone      *string         `json:"phone,omitempty"`
	Address    *string         `json:"address,omitempty"`
	Department *string         `json:"department,omitempty"`
	Courses    []string        `json:"courses,omitempty"`
}

// RegisteredUser is the provisioning result.
type RegisteredUser struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	FullName      string          `json:"full_name"`
	Role          models.UserRole `json:"role"`
	StudentNumber string          `json:"student_number,omitempty"`
}

// ProvisioningService creates users together with their role-appropriate
// domain record in one transaction. Only administrators may provision.
type ProvisioningService struct {
	store     provisioningStore
	users     provisioningUserReader
	cache     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewProvisioningService constructs the service. The cache is optional and
// only used to drop stale dashboard counters after a successful provision.
func NewProvisioningService(store provisioningStore, users provisioningUserReader, cache statsInvalidator, validate *validator.Validate, logger *zap.Logger) *ProvisioningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{
		store:     store,
		users:     users,
		cache:     cache,
		validator: validate,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser provisions a new user on behalf of the calling administrator.
// The caller's role is re-read from storage rather than trusted from the
// token, so a demoted admin cannot keep provisioning.
func (s *ProvisioningService) RegisterUser(ctx context.Context, callerID string, req RegisterUserRequest) (*RegisteredUser, error) {
	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "calling user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calling user")
	}
	if caller.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can register users")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.nowFn()
	record := &repository.ProvisionRecord{
		User: models.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			PasswordHash: string(hash),
			FullName:     req.FullName,
			Role:         req.Role,
			Active:       true,
			Phone:        req.Phone,
			Address:      req.Address,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	result := &RegisteredUser{
		ID:       record.User.ID,
		Email:    record.User.Email,
		FullName: record.User.FullName,
		Role:     record.User.Role,
	}

	switch req.Role {
	case models.RoleStudent:
		number := studentNumber(now)
		record.Student = &models.Student{
			ID:             uuid.NewString(),
			UserID:         record.User.ID,
			StudentNumber:  number,
			EnrollmentDate: now,
			RegisteredBy:   &callerID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		record.EnrollCourses = req.Courses
		result.StudentNumber = number
	case models.RoleStaff, models.RoleInstructor:
		position := "Staff"
		department := req.Department
		if req.Role == models.RoleInstructor {
			position = "Instructor"
			if department == nil {
				academic := "Academic"
				department = &academic
			}
			record.AssignCourses = req.Courses
		}
		record.Staff = &models.Staff{
			ID:         uuid.NewString(),
			UserID:     record.User.ID,
			Department: department,
			Position:   position,
			HireDate:   now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	if err := s.store.Provision(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrEmailTaken, "email is already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision user")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, dashboardStatsCacheKey); err != nil {
			s.logger.Warn("failed to invalidate dashboard stats", zap.Error(err))
		}
	}

	s.logger.Info("user provisioned",
		zap.String("user_id", record.User.ID),
		zap.String("role", string(record.User.Role)),
		zap.String("registered_by", callerID),
	)

	return result, nil
}

// studentNumber derives a display number from the provisioning timestamp,
// keeping the last eight digits of the millisecond clock.
func studentNumber(now time.Time) string {
	return fmt.Sprintf("STU%08d", now.UnixMilli()%100000000)
}
