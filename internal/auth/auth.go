// Package auth issues and verifies the bearer tokens the API requires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid uid or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

// Actor is the authenticated caller extracted from a verified token.
type Actor struct {
	WorkerID int64
	UID      string
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Service authenticates workers and signs HS256 tokens.
type Service struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth service.
func NewService(s store.Store, secret string, ttl time.Duration) *Service {
	return &Service{store: s, secret: []byte(secret), ttl: ttl}
}

// Login verifies the worker's password and returns a signed token.
// Inactive workers cannot log in.
func (s *Service) Login(ctx context.Context, uid, password string) (string, *model.Worker, error) {
	worker, err := s.store.WorkerByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup worker: %w", err)
	}
	if !worker.Active {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  worker.UID,
		"wid":  worker.ID,
		"role": worker.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, worker, nil
}

// HashPassword produces the bcrypt hash stored on a worker record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateToken parses and verifies a bearer token and returns the actor
// it carries.
func (s *Service) ValidateToken(tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrTokenInvalid
	}
	uid, okUID := claims["sub"].(string)
	role, okRole := claims["role"].(string)
	wid, okWID := claims["wid"].(float64)
	if !okUID || !okRole || !okWID {
		return Actor{}, ErrTokenInvalid
	}

	return Actor{WorkerID: int64(wid), UID: uid, Role: role}, nil
}
