package auth

import (
	"github.com/labstack/echo/v4"

	"shopfront/internal/backend"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register creates an account. Anonymous-only.
func (b *Bridge) Register(c echo.Context, input RegisterInput) error {
	if err := b.RequireAnonymous(c); err != nil {
		return err
	}
	return b.backend.Post(c.Request().Context(), backend.RegisterPath, b.Meta(c), input, nil)
}

// PasswordReset asks the backend to send a reset link. Anonymous-only.
func (b *Bridge) PasswordReset(c echo.Context, email string) error {
	if err := b.RequireAnonymous(c); err != nil {
		return err
	}

	body := struct {
		Email string `json:"email"`
	}{email}
	return b.backend.Post(c.Request().Context(), backend.PasswordResetPath, b.Meta(c), body, nil)
}

// UpdatePassword completes a reset flow. The reset token itself is the
// credential here, so no session guard applies.
func (b *Bridge) UpdatePassword(c echo.Context, resetToken string, password string) error {
	body := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{resetToken, password}
	return b.backend.Post(c.Request().Context(), backend.UpdatePasswordPath, b.Meta(c), body, nil)
}

// VerifyResetPasswordToken checks a reset token before showing the
// update-password form.
func (b *Bridge) VerifyResetPasswordToken(c echo.Context, resetToken string) error {
	body := struct {
		Token string `json:"token"`
	}{resetToken}
	return b.backend.Post(c.Request().Context(), backend.VerifyResetPasswordTokenPath, b.Meta(c), body, nil)
}

// ChangePassword rotates the password of the logged-in user.
func (b *Bridge) ChangePassword(c echo.Context, currentPassword string, newPassword string) error {
	if _, err := b.RequireAuthenticated(c); err != nil {
		return err
	}

	body := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{currentPassword, newPassword}
	return b.backend.Post(c.Request().Context(), backend.ChangePasswordPath, b.Meta(c), body, nil)
}

// UpdateProfile updates the logged-in user's profile.
func (b *Bridge) UpdateProfile(c echo.Context, update ProfileUpdate) error {
	principal, err := b.RequireAuthenticated(c)
	if err != nil {
		return err
	}
	return b.backend.Put(c.Request().Context(), backend.UpdateProfilePath(principal.ID), b.Meta(c), update, nil)
}

// TwoFactorSecret fetches a fresh OTP secret for enrolment.
func (b *Bridge) TwoFactorSecret(c echo.Context) (string, error) {
	if _, err := b.RequireAuthenticated(c); err != nil {
		return "", err
	}

	var res struct {
		Secret string `json:"secret"`
	}
	err := b.backend.Get(c.Request().Context(), backend.TwoFactorSecretPath, b.Meta(c), &res)
	if err != nil {
		return "", err
	}
	return res.Secret, nil
}

// ActivateTwoFactor turns on 2FA once the user proves they hold the
// secret by supplying a valid code.
func (b *Bridge) ActivateTwoFactor(c echo.Context, code string) error {
	if _, err := b.RequireAuthenticated(c); err != nil {
		return err
	}

	body := struct {
		Code string `json:"code"`
	}{code}
	return b.backend.Post(c.Request().Context(), backend.ActivateTwoFactorPath, b.Meta(c), body, nil)
}

// DeactivateTwoFactor turns 2FA off for the logged-in user.
func (b *Bridge) DeactivateTwoFactor(c echo.Context) error {
	if _, err := b.RequireAuthenticated(c); err != nil {
		return err
	}
	return b.backend.Post(c.Request().Context(), backend.DeactivateTwoFactorPath, b.Meta(c), nil, nil)
}
