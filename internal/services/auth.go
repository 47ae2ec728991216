package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

const (
	bcryptCost     = 12
	tokenValidity  = 7 * 24 * time.Hour
	minPasswordLen = 8
)

// ErrInvalidToken is returned for expired, malformed or mis-signed
// session tokens.
var ErrInvalidToken = errors.New("invalid session token")

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthService handles registration, login and session token validation.
// Sessions are stateless HS256 JWTs valid for seven days.
type AuthService struct {
	users     userStore
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthService(users userStore, jwtSecret string, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the decoded identity carried by a valid token.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, emailAddr, password, name string) (*models.User, error) {
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, validationErrorf("a valid email address is required")
	}
	if len(password) < minPasswordLen {
		return nil, validationErrorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        emailAddr,
		Name:         name,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, validationErrorf("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.FromContext(ctx, s.logger).Info("user registered",
		slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks credentials and returns the user with a session token.
// Unknown email and wrong password come back as the same error.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyToken validates a session token and returns the identity it
// carries.
func (s *AuthService) VerifyToken(tokenString string) (*Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID: userID,
		Email:  claims.Email,
		Role:   models.Role(claims.Role),
	}, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenValidity)),
		},
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
