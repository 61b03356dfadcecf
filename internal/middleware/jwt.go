package middleware

import (
	"context"

	"studiobook/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for protected routes. Token
// issuance lives in the auth service fronting this one; only verification
// and subject extraction happen here.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey:     []byte(jwtSecret),
		SuccessHandler: attachUserContext,
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	}
}

// attachUserContext copies the validated token's subject into the request
// context as a uuid. Handlers that need the caller's identity read it back
// with common.GetUserIDFromContext and reject the request when it is absent.
func attachUserContext(c echo.Context) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return
	}

	ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}
