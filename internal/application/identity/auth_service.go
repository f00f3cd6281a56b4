package identity

import (
	"context"
	"errors"

	"github.com/gateway/backend/internal/domain/identity"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles registration and authentication
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Register creates an account
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, identity.NormalizeUsername(input.Username))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username already registered")
	}

	user, err := identity.NewUser(input.Username, input.Password, identity.Role(input.Role))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username already registered")
		}
		s.logger.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	return ToUserDTO(user), nil
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("username", input.Username), zap.String("ip", input.IP))

	user, err := s.userRepo.FindByUsername(ctx, identity.NormalizeUsername(input.Username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", input.Username))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID))

	return &LoginResult{
		AccessToken: token.Token,
		TokenType:   auth.TokenTypeBearer,
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
		User:        ToUserDTO(user),
	}, nil
}

// GetUser returns the account behind a token
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return ToUserDTO(user), nil
}
