package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

type AuthMiddleware struct {
	jwtSecret      string
	allowAnonymous bool
}

// NewAuthMiddleware builds the identity middleware. With allowAnonymous a
// bare ?userId= query parameter is trusted when no token is sent.
func NewAuthMiddleware(jwtSecret string, allowAnonymous bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:      jwtSecret,
		allowAnonymous: allowAnonymous,
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.identify(c)
		if err != nil {
			c.Set("error", err.Error())
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, err.Error())
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func (am *AuthMiddleware) identify(c *gin.Context) (string, error) {
	// browsers cannot set headers on a websocket handshake, so the token may
	// also come as ?token=
	tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString != "" {
		return am.parseToken(tokenString)
	}

	if am.allowAnonymous {
		if userID := strings.TrimSpace(c.Query("userId")); userID != "" {
			return userID, nil
		}
		return "", errors.New("userId parameter is required")
	}
	return "", errors.New("authorization header is required")
}

// maxSafeID is the largest integer a JSON number carries exactly (2^53 - 1)
const maxSafeID = 1<<53 - 1

func (am *AuthMiddleware) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(am.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	switch id := claims["user_id"].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		// numeric ids must be positive integers that survive the float64 round trip
		if id > 0 && id <= maxSafeID && id == math.Trunc(id) {
			return strconv.FormatFloat(id, 'f', -1, 64), nil
		}
	}
	return "", errors.New("invalid user ID in token")
}

// UserID returns the user id set by RequireAuth
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
