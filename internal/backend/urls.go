package backend

// Backend endpoint paths, relative to the configured base URL.
const (
	LoginPath                    = "/auth/login"
	RegisterPath                 = "/auth/register"
	AuthPath                     = "/auth"
	VerifyTwoFactorPath          = "/auth/verify-2fa"
	ChangePasswordPath           = "/auth/change-password"
	PasswordResetPath            = "/auth/password-reset"
	UpdatePasswordPath           = "/auth/update-password"
	VerifyResetPasswordTokenPath = "/auth/verify-reset-password-token"
	TwoFactorSecretPath          = "/auth/2fa/secret"
	ActivateTwoFactorPath        = "/auth/2fa/activate"
	DeactivateTwoFactorPath      = "/auth/2fa/deactivate"
	LogoutPath                   = "/auth/logout"
	ProductsPath                 = "/product"
	CheckoutPath                 = "/checkout/session"
)

func ProductByIDPath(id string) string {
	return ProductsPath + "/" + id
}

func UserProductsPath(userID string) string {
	return ProductsPath + "/user/" + userID
}

func BuyProductPath(id string) string {
	return ProductByIDPath(id) + "/buy"
}

func MarkAvailablePath(id string) string {
	return ProductByIDPath(id) + "/mark-available"
}

func UpdateProfilePath(userID string) string {
	return "/users/" + userID
}
