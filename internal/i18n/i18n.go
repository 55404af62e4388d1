package i18n

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Locale reads and writes the language preference cookie. The preference
// rides along to the backend as the X-Lang header and also picks the
// client-side translation table.
type Locale struct {
	CookieName  string
	DefaultLang string
}

func (l Locale) FromContext(c echo.Context) string {
	cookie, err := c.Cookie(l.CookieName)
	if err != nil || cookie.Value == "" {
		return l.DefaultLang
	}
	return cookie.Value
}

func (l Locale) Set(c echo.Context, lang string) {
	c.SetCookie(&http.Cookie{
		Name:     l.CookieName,
		Value:    lang,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
}

// Translator maps error message keys to localized text. Unknown keys
// translate to "" so the presenter can fall back to showing the key.
type Translator struct {
	tables map[string]map[string]string
}

func NewTranslator() *Translator {
	return &Translator{tables: builtinTables}
}

// For returns the translate function for one language, falling back to
// English for keys the language's table doesn't cover.
func (t *Translator) For(lang string) func(string) string {
	table := t.tables[lang]
	fallback := t.tables["en"]

	return func(key string) string {
		if table != nil {
			if msg, ok := table[key]; ok {
				return msg
			}
		}
		if fallback != nil {
			if msg, ok := fallback[key]; ok {
				return msg
			}
		}
		return ""
	}
}

var builtinTables = map[string]map[string]string{
	"en": {
		"errors.unknownError":         "Something went wrong, please try again",
		"errors.unknownServerShape":   "The server returned an unexpected response",
		"errors.validationFailed":     "Some fields are invalid",
		"errors.unauthorized":         "You need to be logged in to do that",
		"errors.alreadyLoggedIn":      "You are already logged in",
		"errors.invalidCredentials":   "Incorrect email or password",
		"errors.twoFactorRequired":    "Enter the code from your authenticator app",
		"errors.invalidOtp":           "That code is not valid",
		"errors.emailInUse":           "That email address is already registered",
		"errors.passwordMin":          "Password is too short",
		"errors.usernameTaken":        "That username is taken",
		"errors.invalidResetToken":    "This password reset link is no longer valid",
		"errors.passwordChangeFailed": "Couldn't change your password",
	},
	"ar": {
		"errors.unknownError":       "حدث خطأ ما، حاول مرة أخرى",
		"errors.unauthorized":       "يجب تسجيل الدخول أولاً",
		"errors.invalidCredentials": "البريد الإلكتروني أو كلمة المرور غير صحيحة",
		"errors.twoFactorRequired":  "أدخل الرمز من تطبيق المصادقة",
	},
	"ckb": {
		"errors.unknownError":       "هەڵەیەک ڕوویدا، دووبارە هەوڵ بدەرەوە",
		"errors.unauthorized":       "پێویستە سەرەتا بچیتە ژوورەوە",
		"errors.invalidCredentials": "ئیمەیڵ یان وشەی نهێنی هەڵەیە",
	},
}
