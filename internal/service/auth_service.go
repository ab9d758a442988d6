package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/QuocDL/bitis-be/internal/config"
	"github.com/QuocDL/bitis-be/internal/mailer"
	"github.com/QuocDL/bitis-be/internal/model"
)

// UserRepositoryInterface defines the user persistence operations used by
// AuthService.
type UserRepositoryInterface interface {
	Insert(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, search string, limit, offset int) ([]model.User, int, error)
}

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login, token issuance and account
// administration.
type AuthService struct {
	repo UserRepositoryInterface
	mail mailer.Mailer
	cfg  config.JWTConfig
	now  func() time.Time
}

// NewAuthService creates an AuthService with the given repository, mailer and
// JWT settings.
func NewAuthService(repo UserRepositoryInterface, mail mailer.Mailer, cfg config.JWTConfig) *AuthService {
	return &AuthService{repo: repo, mail: mail, cfg: cfg, now: time.Now}
}

// Register creates a user account. Returns ErrEmailExists when the address is
// already registered.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues an access token. Wrong email and
// wrong password return the same error so the response does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{User: *user, AccessToken: token}, nil
}

// GetProfile returns the authenticated user's account.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ForgotPassword replaces the account's password with a generated temporary
// one and mails it to the address on file. An unregistered email is a
// RuleError so the caller gets an actionable message.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return &RuleError{Msg: "email is not registered"}
	}

	password, err := generateTempPassword()
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if err := s.mail.SendPasswordReset(ctx, user.Email, password); err != nil {
		return fmt.Errorf("mail password reset: %w", err)
	}
	return nil
}

// ListUsers returns a page of accounts for the admin user screen.
func (s *AuthService) ListUsers(ctx context.Context, search string, page, pageSize int) (*model.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	users, total, err := s.repo.List(ctx, search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &model.UserListResponse{
		Users:      users,
		Page:       page,
		TotalDocs:  total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateTempPassword() (string, error) {
	buf := make([]byte, 8)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.ExpiryHours) * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
