package webserver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"shopfront/internal/auth"
	"shopfront/internal/backend"
	"shopfront/internal/config"
	"shopfront/internal/i18n"
	"shopfront/internal/session"
	"shopfront/internal/storefront"
)

type Webserver struct {
	e          *echo.Echo
	conf       *config.Config
	bridge     *auth.Bridge
	products   *storefront.Service
	locale     i18n.Locale
	translator *i18n.Translator
}

func New() *Webserver {
	return &Webserver{e: echo.New()}
}

func (w *Webserver) Logger() echo.Logger {
	return w.e.Logger
}

func (w *Webserver) Run(conf *config.Config) {
	w.setup(conf)

	err := w.e.Start(fmt.Sprintf(":%d", conf.ListenPort))
	w.e.Logger.Fatal(err)
}

func (w *Webserver) setup(conf *config.Config) {
	w.conf = conf

	w.e.Use(middleware.Logger())
	w.e.Use(middleware.Recover())
	w.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	w.locale = i18n.Locale{
		CookieName:  conf.Locale.CookieName,
		DefaultLang: conf.Locale.DefaultLang,
	}
	w.translator = i18n.NewTranslator()

	client := backend.New(conf.Backend.URL, conf.Session.Cookie.Name, conf.BackendTimeout())

	sessions := &session.JWTHandler{
		Secret:       []byte(conf.Session.Cookie.Secret),
		CookieName:   conf.Session.Cookie.Name,
		CookieSecure: conf.Session.Cookie.Secure,
		Lifetime:     conf.SessionLifetime(),
	}

	w.bridge = auth.NewBridge(client, sessions, w.locale)
	w.products = storefront.New(w.bridge)

	w.registerRoutes()
}

func (w *Webserver) registerRoutes() {
	w.e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "pong")
	})

	w.e.POST("/login", w.loginRouteHandler)
	w.e.POST("/login/verify-2fa", w.verifyTwoFactorRouteHandler)
	w.e.POST("/logout", w.logoutRouteHandler)
	w.e.GET("/auth", w.authInfoRouteHandler)

	w.e.POST("/register", w.registerRouteHandler)
	w.e.POST("/password-reset", w.passwordResetRouteHandler)
	w.e.POST("/verify-reset-token", w.verifyResetTokenRouteHandler)
	w.e.POST("/update-password", w.updatePasswordRouteHandler)
	w.e.POST("/change-password", w.changePasswordRouteHandler)
	w.e.PUT("/profile", w.updateProfileRouteHandler)

	w.e.GET("/2fa/secret", w.twoFactorSecretRouteHandler)
	w.e.POST("/2fa/activate", w.activateTwoFactorRouteHandler)
	w.e.POST("/2fa/deactivate", w.deactivateTwoFactorRouteHandler)

	w.e.POST("/lang", w.setLangRouteHandler)

	w.e.GET("/products", w.listProductsRouteHandler)
	w.e.GET("/products/user/:id", w.userProductsRouteHandler)
	w.e.POST("/products", w.createProductRouteHandler)
	w.e.GET("/products/:id", w.productByIDRouteHandler)
	w.e.PUT("/products/:id", w.updateProductRouteHandler)
	w.e.DELETE("/products/:id", w.deleteProductRouteHandler)
	w.e.PUT("/products/:id/mark-available", w.markAvailableRouteHandler)
	w.e.POST("/products/:id/buy", w.buyProductRouteHandler)

	w.e.POST("/checkout", w.checkoutRouteHandler)
}
