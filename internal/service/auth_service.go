package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/ai-feedback-api/internal/dto"
)

// AuthService issues access tokens for API callers.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	secret    []byte
	ttl       time.Duration
	validator *validator.Validate
	now       func() time.Time
}

// NewAuthService constructs an AuthService signing HS256 tokens with secret.
func NewAuthService(secret string, ttl time.Duration, validate *validator.Validate) AuthService {
	return &authService{
		secret:    []byte(secret),
		ttl:       ttl,
		validator: validate,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}
	if len(s.secret) == 0 {
		return dto.LoginResponse{}, errors.New("jwt secret is not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"name": payload.Name,
		"iat":  now.Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = now.Add(s.ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{AccessToken: signed}, nil
}
