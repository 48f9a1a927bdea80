package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenClaims 管理侧服务令牌声明
type ServiceTokenClaims struct {
	ServiceName string `json:"service_name"`
	jwt.RegisteredClaims
}

// SignServiceToken 为调用方签发 HS256 服务令牌
func SignServiceToken(secretKey, serviceName string, expireHours int) (string, error) {
	if strings.TrimSpace(secretKey) == "" {
		return "", ErrValidationFailed
	}
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return "", ErrValidationFailed
	}
	if expireHours <= 0 {
		expireHours = 24
	}

	now := time.Now()
	claims := ServiceTokenClaims{
		ServiceName: serviceName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   serviceName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
