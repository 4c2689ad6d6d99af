package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ошибки проверки токена. Expired и Malformed различаются, чтобы клиент
// понимал, нужно ли перелогиниться или токен просто испорчен.
var (
	ErrTokenExpired   = errors.New("токен истёк")
	ErrTokenMalformed = errors.New("токен невалиден")
)

// Claims — проверенные утверждения из токена.
type Claims struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// TokenManager отвечает за выпуск и проверку JWT.
// Отзыва токенов нет: валидность определяется только подписью и сроком.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен с идентификатором, именем и ролью пользователя.
func (m *TokenManager) Issue(userID uuid.UUID, username, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID.String(),
		"username": username,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token manager: не удалось подписать токен: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок токена и возвращает клеймы.
func (m *TokenManager) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrTokenMalformed
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
	}, nil
}

// Refresh проверяет токен и выпускает новый с теми же клеймами и свежим сроком.
func (m *TokenManager) Refresh(raw string) (string, error) {
	claims, err := m.Verify(raw)
	if err != nil {
		return "", err
	}
	return m.Issue(claims.UserID, claims.Username, claims.Role)
}
