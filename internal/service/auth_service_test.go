package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ai-feedback-api/internal/dto"
)

func TestLoginIssuesSignedToken(t *testing.T) {
	svc := NewAuthService("secret", time.Hour, testValidator())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Name: "  grader "})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)

	token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "grader", claims["name"])
	require.Contains(t, claims, "exp")
}

func TestLoginRequiresName(t *testing.T) {
	svc := NewAuthService("secret", time.Hour, testValidator())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Name: "   "})
	require.Error(t, err)
}
