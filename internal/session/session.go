package session

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// Data is what a live session stores: the user's identity and the opaque
// token the backend issued at login. The token is replayed on every API
// call and never parsed locally.
type Data struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type Handler interface {
	Start(echo.Context, Data) error
	Destroy(echo.Context) error
	Get(echo.Context) (*Data, error)
}

var ErrInvalidSession = errors.New("session token was invalid")
