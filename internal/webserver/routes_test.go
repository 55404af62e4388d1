package webserver

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/backend"
	"shopfront/internal/config"
)

type testEnv struct {
	server  *Webserver
	mux     *http.ServeMux
	backend *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{mux: http.NewServeMux()}
	env.backend = httptest.NewServer(env.mux)
	t.Cleanup(env.backend.Close)

	conf := &config.Config{}
	conf.ListenPort = 0
	conf.Backend.URL = env.backend.URL
	conf.Backend.Timeout = 5
	conf.Session.Lifetime = 3600
	conf.Session.Cookie.Name = "shop"
	conf.Session.Cookie.Secret = "test-secret-at-least-16-bytes"
	conf.Locale.CookieName = "language"
	conf.Locale.DefaultLang = "en"

	env.server = New()
	env.server.setup(conf)
	return env
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const backendLoginOK = `{"jwt": "opaque-backend-token", "user": {"id": "42", "email": "user@shop.example"}}`

func (env *testEnv) allowToken(token string) {
	env.mux.HandleFunc(backend.AuthPath, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("shop")
		if err != nil || cookie.Value != token {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"statusCode": 401, "message": "errors.unauthorized"}`)
			return
		}
		io.WriteString(w, `{"id": "42", "email": "user@shop.example"}`)
	})
}

func (env *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email": "user@shop.example", "password": "hunter22"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := findCookie(rec, "shop")
	require.NotNil(t, cookie)
	return cookie
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

// Scenario: wrong password. The backend's single-message rejection comes
// back as one translated notification and no session cookie.
func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"statusCode": 401, "message": "errors.invalidCredentials"}`)
	})

	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email": "user@shop.example", "password": "wrong"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	res := decodeErrorResponse(t, rec)
	assert.Equal(t, []string{"Incorrect email or password"}, res.Messages)
	assert.Empty(t, res.Fields)
	assert.False(t, res.TwoFactorRequired)
	assert.Nil(t, findCookie(rec, "shop"))
}

func TestLoginSuccessEstablishesSession(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})
	env.allowToken("opaque-backend-token")

	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)

	// The new session passes the who-am-I re-validation.
	rec := env.do(jsonRequest(http.MethodGet, "/auth", "", cookie))
	assert.Equal(t, http.StatusOK, rec.Code)

	var principal struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		JWTPresent bool   `json:"jwtPresent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &principal))
	assert.Equal(t, "42", principal.ID)
	assert.True(t, principal.JWTPresent)
}

func TestLoginTwoFactorChallenge(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"statusCode": 401, "message": "errors.twoFactorRequired"}`)
	})
	env.mux.HandleFunc(backend.VerifyTwoFactorPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})

	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email": "user@shop.example", "password": "hunter22"}`))
	res := decodeErrorResponse(t, rec)
	assert.True(t, res.TwoFactorRequired, "the UI needs the flag to switch to the OTP screen")

	// Completing the challenge starts the session.
	rec = env.do(jsonRequest(http.MethodPost, "/login/verify-2fa",
		`{"email": "user@shop.example", "password": "hunter22", "code": "123456"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, findCookie(rec, "shop"))
}

// Scenario: registration with two invalid fields surfaces both messages
// in one response.
func TestRegisterSurfacesAllValidationMessages(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.RegisterPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{
			"statusCode": 422,
			"message": [
				{"field": "password", "messages": ["errors.passwordMin"]},
				{"field": "username", "messages": ["errors.usernameTaken"]}
			]
		}`)
	})

	rec := env.do(jsonRequest(http.MethodPost, "/register",
		`{"name": "u", "email": "u@shop.example", "password": "x"}`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decodeErrorResponse(t, rec)
	assert.Equal(t, []string{"Password is too short", "That username is taken"}, res.Messages)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "password", res.Fields[0].Field)
	assert.Equal(t, "username", res.Fields[1].Field)
}

// Scenario: logout still clears the session when the backend call fails.
func TestLogoutSurvivesBackendOutage(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})
	env.mux.HandleFunc(backend.LogoutPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	env.allowToken("opaque-backend-token")

	cookie := env.login(t)

	rec := env.do(jsonRequest(http.MethodPost, "/logout", "", cookie))
	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := findCookie(rec, "shop")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// With the cleared cookie the principal is gone.
	rec = env.do(jsonRequest(http.MethodGet, "/auth", "", cleared))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorsTranslatePerLocaleCookie(t *testing.T) {
	env := newTestEnv(t)

	var gotLang string
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("X-Lang")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"statusCode": 401, "message": "errors.invalidCredentials"}`)
	})

	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email": "u@shop.example", "password": "x"}`,
		&http.Cookie{Name: "language", Value: "ar"}))

	assert.Equal(t, "ar", gotLang, "the locale preference rides to the backend")
	res := decodeErrorResponse(t, rec)
	require.Len(t, res.Messages, 1)
	assert.NotEqual(t, "Incorrect email or password", res.Messages[0])
	assert.NotEqual(t, "errors.invalidCredentials", res.Messages[0])
}

func TestSetLangWritesCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(http.MethodPost, "/lang", `{"lang": "ckb"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, "language")
	require.NotNil(t, cookie)
	assert.Equal(t, "ckb", cookie.Value)
}

func TestProductsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.ProductsPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [], "meta": {"nextPageUrl": "", "total": 0}}`)
	})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	res := decodeErrorResponse(t, rec)
	assert.Equal(t, []string{"You need to be logged in to do that"}, res.Messages)
}

func TestCreateProductForwardsMultipart(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})
	env.allowToken("opaque-backend-token")

	var upstreamContentType, fileName string
	env.mux.HandleFunc(backend.ProductsPath, func(w http.ResponseWriter, r *http.Request) {
		upstreamContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Lamp", r.MultipartForm.Value["name"][0])

		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		fileName = header.Filename

		io.WriteString(w, `{"message": "created", "data": {"id": "7", "name": "Lamp"}}`)
	})

	cookie := env.login(t)

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("name", "Lamp"))
	require.NoError(t, writer.WriteField("price", "25"))
	part, err := writer.CreateFormFile("image", "lamp.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "fake-png-bytes")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)

	rec := env.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(upstreamContentType, "multipart/form-data"))
	assert.Equal(t, "lamp.png", fileName)
}

func TestCheckoutRoute(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})
	env.allowToken("opaque-backend-token")
	env.mux.HandleFunc(backend.CheckoutPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"url": "https://pay.example/session/abc"}`)
	})

	cookie := env.login(t)

	rec := env.do(jsonRequest(http.MethodPost, "/checkout", `{"productId": "7"}`, cookie))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url": "https://pay.example/session/abc"}`, rec.Body.String())
}

func TestOutOfRangeBackendStatusClampsTo500(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"statusCode": 0, "message": "errors.unknownError"}`)
	})

	var rec *httptest.ResponseRecorder
	require.NotPanics(t, func() {
		rec = env.do(jsonRequest(http.MethodPost, "/login", `{"email": "u@shop.example", "password": "x"}`))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	res := decodeErrorResponse(t, rec)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, []string{"Something went wrong, please try again"}, res.Messages)
}

func TestLoginRejectedWhenAlreadyLoggedIn(t *testing.T) {
	env := newTestEnv(t)
	env.mux.HandleFunc(backend.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, backendLoginOK)
	})
	env.allowToken("opaque-backend-token")

	cookie := env.login(t)

	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email": "u@shop.example", "password": "x"}`, cookie))
	assert.Equal(t, http.StatusConflict, rec.Code)

	res := decodeErrorResponse(t, rec)
	assert.Equal(t, []string{"You are already logged in"}, res.Messages)
}
