package session

import (
	"fmt"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Aliasing it so we can use it in the struct literal for composition
type jwtRegisteredClaims = jwt.RegisteredClaims

type jwtClaims struct {
	Data
	jwtRegisteredClaims
}

// JWTHandler keeps the session in a single HMAC-signed cookie. The signed
// claims wrap the backend token, so tampering with either the identity or
// the token invalidates the whole session.
type JWTHandler struct {
	Secret       []byte
	CookieName   string
	CookieSecure bool
	Lifetime     time.Duration
}

func (s *JWTHandler) Start(c echo.Context, data Data) error {
	sessExpiryTime := time.Now().Add(s.Lifetime)

	sessClaims := &jwtClaims{
		Data: data,
		jwtRegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sessExpiryTime),
		},
	}

	sessToken := jwt.NewWithClaims(jwtSigningMethod, sessClaims)

	signedSessToken, err := sessToken.SignedString(s.Secret)
	if err != nil {
		return fmt.Errorf("couldn't sign session JWT: %v", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     s.CookieName,
		Value:    signedSessToken,
		Secure:   s.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  sessExpiryTime,
	})

	return nil
}

// Destroy clears the cookie. It cannot fail, which lets logout always
// succeed locally even when the backend is unreachable.
func (s *JWTHandler) Destroy(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  time.Unix(0, 0),
	})
	return nil
}

func (s *JWTHandler) Get(c echo.Context) (*Data, error) {
	authCookie, err := c.Cookie(s.CookieName)
	if err != nil || authCookie.Value == "" {
		return nil, ErrInvalidSession
	}

	decoder := jwt.NewParser(jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}))

	claims := new(jwtClaims)

	token, err := decoder.ParseWithClaims(authCookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	})

	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	return &claims.Data, nil
}
