package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// AuthService handles registration, login and password management for
// citizens and officers.
type AuthService struct {
	users    repository.UserRepository
	officers repository.OfficerRepository
	resets   repository.PasswordResetRepository
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
	logger   *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, officers repository.OfficerRepository, resets repository.PasswordResetRepository, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		officers: officers,
		resets:   resets,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}
}

// RegisterInput carries citizen registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// LoginResult bundles the issued token with its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterUser creates a citizen account.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("valid email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// LoginUser authenticates a citizen and issues a token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, apperrors.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// LoginOfficer authenticates an officer and issues a role-carrying token.
func (s *AuthService) LoginOfficer(ctx context.Context, email, password string) (*domain.Officer, *LoginResult, error) {
	officer, err := s.officers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !officer.Active {
		return nil, nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(officer.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	role := officer.Role
	token, expiresAt, err := s.tokens.GenerateToken(officer.ID, domain.SubjectTypeOfficer, &role)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return officer, &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// CreateOfficer provisions an officer account; admin-only at the handler.
func (s *AuthService) CreateOfficer(ctx context.Context, officer *domain.Officer, password string) (*domain.Officer, error) {
	officer.Email = strings.ToLower(strings.TrimSpace(officer.Email))
	if officer.Email == "" || !strings.Contains(officer.Email, "@") {
		return nil, apperrors.NewValidationError("valid email required", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	switch officer.Role {
	case domain.OfficerRoleOfficer, domain.OfficerRoleRegionLead, domain.OfficerRoleAdmin:
	default:
		return nil, apperrors.NewValidationError("unknown officer role", map[string]any{"role": officer.Role})
	}
	if _, err := s.officers.GetByEmail(ctx, officer.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": officer.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	officer.PasswordHash = hash
	officer.Active = true
	if err := s.officers.Create(ctx, officer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return officer, nil
}

// RequestPasswordReset creates a reset token for the account, if it exists.
// The boolean/err shape never reveals account existence to the caller; the
// raw token goes out through the notification channel only.
func (s *AuthService) RequestPasswordReset(ctx context.Context, subject domain.SubjectType, email string) (string, error) {
	var subjectID string
	switch subject {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", nil
			}
			return "", apperrors.MapError(err)
		}
		subjectID = user.ID
	case domain.SubjectTypeOfficer:
		officer, err := s.officers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", nil
			}
			return "", apperrors.MapError(err)
		}
		subjectID = officer.ID
	default:
		return "", apperrors.NewValidationError("unknown subject type", nil)
	}

	token := uuid.NewString()
	reset := &domain.PasswordReset{
		Subject:   subject,
		SubjectID: subjectID,
		TokenHash: hashResetToken(token),
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.PasswordResetTTLMinutes) * time.Minute),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", apperrors.MapError(err)
	}
	s.logger.Info("password reset requested",
		zap.String("subject_type", string(subject)),
		zap.String("subject_id", subjectID))
	return token, nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	reset, err := s.resets.GetByTokenHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid or expired reset token")
		}
		return apperrors.MapError(err)
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	switch reset.Subject {
	case domain.SubjectTypeUser:
		err = s.users.UpdatePassword(ctx, reset.SubjectID, hash)
	case domain.SubjectTypeOfficer:
		err = s.officers.UpdatePassword(ctx, reset.SubjectID, hash)
	default:
		return apperrors.NewInternalError(errors.New("unknown reset subject"))
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		s.logger.Warn("failed to mark reset token used", zap.String("reset_id", reset.ID), zap.Error(err))
	}
	return nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, subject domain.SubjectType, subjectID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	var currentHash string
	switch subject {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		currentHash = user.PasswordHash
	case domain.SubjectTypeOfficer:
		officer, err := s.officers.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		currentHash = officer.PasswordHash
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}
	if err := auth.ComparePassword(currentHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}
	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if subject == domain.SubjectTypeUser {
		return apperrors.MapError(s.users.UpdatePassword(ctx, subjectID, hash))
	}
	return apperrors.MapError(s.officers.UpdatePassword(ctx, subjectID, hash))
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
