package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localeContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLocaleFallsBackToDefault(t *testing.T) {
	l := Locale{CookieName: "language", DefaultLang: "en"}

	c, _ := localeContext()
	assert.Equal(t, "en", l.FromContext(c))

	c, _ = localeContext(&http.Cookie{Name: "language", Value: ""})
	assert.Equal(t, "en", l.FromContext(c))
}

func TestLocaleReadsCookie(t *testing.T) {
	l := Locale{CookieName: "language", DefaultLang: "en"}

	c, _ := localeContext(&http.Cookie{Name: "language", Value: "ckb"})
	assert.Equal(t, "ckb", l.FromContext(c))
}

func TestLocaleSetWritesLongLivedCookie(t *testing.T) {
	l := Locale{CookieName: "language", DefaultLang: "en"}

	c, rec := localeContext()
	l.Set(c, "ar")

	res := http.Response{Header: rec.Header()}
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "language", cookies[0].Name)
	assert.Equal(t, "ar", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].Expires.After(time.Now().Add(300*24*time.Hour)))
}

func TestTranslatorLookups(t *testing.T) {
	tr := NewTranslator()

	en := tr.For("en")
	assert.Equal(t, "Incorrect email or password", en("errors.invalidCredentials"))
	assert.Empty(t, en("errors.someUnknownKey"))

	// Arabic has its own entry here.
	ar := tr.For("ar")
	assert.NotEmpty(t, ar("errors.invalidCredentials"))
	assert.NotEqual(t, en("errors.invalidCredentials"), ar("errors.invalidCredentials"))

	// Keys missing from a partial table fall back to English.
	ckb := tr.For("ckb")
	assert.Equal(t, en("errors.emailInUse"), ckb("errors.emailInUse"))

	// Unknown language falls back to English wholesale.
	de := tr.For("de")
	assert.Equal(t, en("errors.unauthorized"), de("errors.unauthorized"))
}
