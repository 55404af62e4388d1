package auth

import (
	"errors"

	"github.com/labstack/echo/v4"

	"shopfront/internal/apierror"
	"shopfront/internal/backend"
	"shopfront/internal/i18n"
	"shopfront/internal/session"
)

// TwoFactorRequiredKey is the exact business-rule message the backend
// sends when a login needs a one-time code. Call sites match it to switch
// the UI to the OTP screen instead of showing a generic failure.
const TwoFactorRequiredKey = "errors.twoFactorRequired"

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Principal is the minimal identity projection exposed to the rest of
// the app. It is derived from the backend on every read, never cached.
type Principal struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	JWTPresent bool   `json:"jwtPresent"`
}

// Bridge exchanges credentials with the backend, keeps the resulting
// opaque token in the cookie session and replays it on API calls. It is
// the only code allowed to touch the session cookie.
type Bridge struct {
	backend  *backend.Client
	sessions session.Handler
	locale   i18n.Locale
}

func NewBridge(client *backend.Client, sessions session.Handler, locale i18n.Locale) *Bridge {
	return &Bridge{
		backend:  client,
		sessions: sessions,
		locale:   locale,
	}
}

// Meta assembles the per-request backend headers: the session token (when
// a session exists) and the active language.
func (b *Bridge) Meta(c echo.Context) backend.Meta {
	meta := backend.Meta{Lang: b.locale.FromContext(c)}

	if data, err := b.sessions.Get(c); err == nil {
		meta.Token = data.Token
	}

	return meta
}

// Backend exposes the API client for callers that already hold a Meta.
func (b *Bridge) Backend() *backend.Client {
	return b.backend
}

type loginResponse struct {
	JWT  string `json:"jwt"`
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login exchanges credentials for a backend token and starts a session.
// On any backend rejection the normalized error propagates and no session
// is established; a two-factor challenge surfaces as the business-rule
// error TwoFactorRequiredKey.
func (b *Bridge) Login(c echo.Context, creds Credentials) (*Principal, error) {
	var res loginResponse
	err := b.backend.Post(c.Request().Context(), backend.LoginPath, b.Meta(c), creds, &res)
	if err != nil {
		return nil, err
	}

	return b.startSession(c, res)
}

// CompleteTwoFactorLogin finishes a login the backend challenged with a
// two-factor requirement.
func (b *Bridge) CompleteTwoFactorLogin(c echo.Context, code string, creds Credentials) (*Principal, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}{creds.Email, creds.Password, code}

	var res loginResponse
	err := b.backend.Post(c.Request().Context(), backend.VerifyTwoFactorPath, b.Meta(c), body, &res)
	if err != nil {
		return nil, err
	}

	return b.startSession(c, res)
}

func (b *Bridge) startSession(c echo.Context, res loginResponse) (*Principal, error) {
	err := b.sessions.Start(c, session.Data{
		UserID: res.User.ID,
		Email:  res.User.Email,
		Token:  res.JWT,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &Principal{ID: res.User.ID, Email: res.User.Email, JWTPresent: true}, nil
}

// Logout invalidates the backend session best-effort and always clears
// the local cookie, so a backend outage can't strand the user in a
// logged-in-looking state.
func (b *Bridge) Logout(c echo.Context) error {
	if data, err := b.sessions.Get(c); err == nil && data.Token != "" {
		if err := b.backend.Post(c.Request().Context(), backend.LogoutPath, b.Meta(c), nil, nil); err != nil {
			c.Echo().Logger.Warnf("Backend logout failed, clearing local session anyway: %v", err)
		}
	}

	return b.sessions.Destroy(c)
}

type authInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CurrentPrincipal re-validates the stored token against the backend on
// every read. A missing session, a denied token or an unreachable backend
// all yield (nil, nil): the token is never trusted locally.
func (b *Bridge) CurrentPrincipal(c echo.Context) (*Principal, error) {
	data, err := b.sessions.Get(c)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidSession) {
			c.Echo().Logger.Warnf("Unexpected error reading session: %v", err)
		}
		return nil, nil
	}
	if data.Token == "" {
		return nil, nil
	}

	var info authInfo
	err = b.backend.Get(c.Request().Context(), backend.AuthPath, backend.Meta{
		Token: data.Token,
		Lang:  b.locale.FromContext(c),
	}, &info)
	if err != nil {
		return nil, nil
	}

	return &Principal{ID: info.ID, Email: info.Email, JWTPresent: true}, nil
}

// RequireAuthenticated guards privileged actions. It fails with the
// Unauthorized condition before any business endpoint is called.
func (b *Bridge) RequireAuthenticated(c echo.Context) (*Principal, error) {
	principal, err := b.CurrentPrincipal(c)
	if err != nil || principal == nil {
		return nil, apierror.Unauthorized()
	}
	return principal, nil
}

// RequireAnonymous guards anonymous-only actions such as login and
// registration.
func (b *Bridge) RequireAnonymous(c echo.Context) error {
	principal, _ := b.CurrentPrincipal(c)
	if principal != nil {
		return apierror.AlreadyAuthenticated()
	}
	return nil
}

// IsTwoFactorRequired reports whether err is the backend's two-factor
// login challenge.
func IsTwoFactorRequired(err error) bool {
	var apiErr *apierror.Error
	return errors.As(err, &apiErr) && apiErr.Message == TwoFactorRequiredKey
}
