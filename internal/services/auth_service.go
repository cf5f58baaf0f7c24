package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"csvinsight/internal/models"
	"csvinsight/internal/repositories"
	"csvinsight/pkg/logger"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// AuthConfig holds the settings of an AuthService.
type AuthConfig struct {
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
}

// AuthService handles registration, credential checks and session tokens.
type AuthService struct {
	userRepo   repositories.UserRepository
	sessions   repositories.SessionRevocationStore
	secret     []byte
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sessions repositories.SessionRevocationStore, cfg AuthConfig) *AuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		sessions:   sessions,
		secret:     []byte(cfg.Secret),
		sessionTTL: ttl,
		bcryptCost: cost,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if len(password) < MinPasswordLength {
		return nil, models.ErrWeakPassword
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hashed)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Find returns the user registered with email, or models.ErrUserNotFound.
func (s *AuthService) Find(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
}

// Verify checks a login attempt. It fails with models.ErrUserNotFound or
// models.ErrWrongPassword.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Find(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.ErrWrongPassword
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	return user, nil
}

// IssueSession signs a session token for user.
func (s *AuthService) IssueSession(user *models.User) (string, *models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Email: session.Email,
		StandardClaims: jwt.StandardClaims{
			Id:        session.ID,
			Subject:   strconv.FormatUint(uint64(session.UserID), 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: session.ExpiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, session, nil
}

// ValidateSession parses a session token and checks its signature, expiry
// and revocation state. Every failure wraps models.ErrInvalidSession.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*models.Session, error) {
	session, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, fmt.Errorf("%w: session expired", models.ErrInvalidSession)
	}

	revoked, err := s.sessions.IsRevoked(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session %s: %w", session.ID, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session revoked", models.ErrInvalidSession)
	}
	return session, nil
}

// RevokeSession logs a session token out. Tokens that are already invalid
// need no revocation.
func (s *AuthService) RevokeSession(ctx context.Context, tokenString string) error {
	session, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, session.ID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	log := logger.Get()
	log.Debug().Str("session_id", session.ID).Str("email", session.Email).Msg("session revoked")
	return nil
}

func (s *AuthService) parse(tokenString string) (*models.Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", models.ErrInvalidSession)
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSession, err)
	}
	if !token.Valid || claims.Id == "" || claims.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: incomplete claims", models.ErrInvalidSession)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", models.ErrInvalidSession)
	}
	return &models.Session{
		ID:        claims.Id,
		UserID:    uint(userID),
		Email:     claims.Email,
		IssuedAt:  time.Unix(claims.IssuedAt, 0),
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}
