package webserver

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"shopfront/internal/apierror"
	"shopfront/internal/auth"
	"shopfront/internal/backend"
	"shopfront/internal/storefront"
)

// errorResponse is what the UI renders on failure: one entry per
// simultaneous message (all validation complaints at once), plus enough
// structure for field-level highlighting and the 2FA redirect.
type errorResponse struct {
	StatusCode        int                   `json:"statusCode"`
	Messages          []string              `json:"messages"`
	ErrorCode         string                `json:"errorCode,omitempty"`
	Fields            []apierror.FieldError `json:"fields,omitempty"`
	TwoFactorRequired bool                  `json:"twoFactorRequired,omitempty"`
}

// renderError is the single place action failures become HTTP responses.
func (w *Webserver) renderError(c echo.Context, err error) error {
	apiErr := apierror.From(err)
	translate := w.translator.For(w.locale.FromContext(c))

	var messages []string
	apierror.Present(apiErr, translate, func(msg string) {
		messages = append(messages, msg)
	}, apierror.DefaultOptions())

	// The backend-supplied status can't be trusted to be a writable HTTP
	// status, and WriteHeader panics outside 100-599.
	status := apiErr.StatusCode
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	return c.JSON(status, errorResponse{
		StatusCode:        status,
		Messages:          messages,
		ErrorCode:         apiErr.ErrorCode,
		Fields:            apiErr.Fields,
		TwoFactorRequired: auth.IsTwoFactorRequired(err),
	})
}

func (w *Webserver) loginRouteHandler(c echo.Context) error {
	if err := w.bridge.RequireAnonymous(c); err != nil {
		return w.renderError(c, err)
	}

	var creds auth.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	principal, err := w.bridge.Login(c, creds)
	if err != nil {
		return w.renderError(c, err)
	}

	return c.JSON(http.StatusOK, principal)
}

func (w *Webserver) verifyTwoFactorRouteHandler(c echo.Context) error {
	if err := w.bridge.RequireAnonymous(c); err != nil {
		return w.renderError(c, err)
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	principal, err := w.bridge.CompleteTwoFactorLogin(c, body.Code, auth.Credentials{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return w.renderError(c, err)
	}

	return c.JSON(http.StatusOK, principal)
}

func (w *Webserver) logoutRouteHandler(c echo.Context) error {
	if err := w.bridge.Logout(c); err != nil {
		return w.renderError(c, err)
	}
	return c.String(http.StatusOK, "")
}

func (w *Webserver) authInfoRouteHandler(c echo.Context) error {
	principal, err := w.bridge.CurrentPrincipal(c)
	if err != nil {
		return w.renderError(c, err)
	}
	if principal == nil {
		return w.renderError(c, apierror.Unauthorized())
	}
	return c.JSON(http.StatusOK, principal)
}

func (w *Webserver) registerRouteHandler(c echo.Context) error {
	var input auth.RegisterInput
	if err := c.Bind(&input); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.Register(c, input); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (w *Webserver) passwordResetRouteHandler(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.PasswordReset(c, body.Email); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) verifyResetTokenRouteHandler(c echo.Context) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.VerifyResetPasswordToken(c, body.Token); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) updatePasswordRouteHandler(c echo.Context) error {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.UpdatePassword(c, body.Token, body.Password); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) changePasswordRouteHandler(c echo.Context) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.ChangePassword(c, body.CurrentPassword, body.NewPassword); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) updateProfileRouteHandler(c echo.Context) error {
	var update auth.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.UpdateProfile(c, update); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) twoFactorSecretRouteHandler(c echo.Context) error {
	secret, err := w.bridge.TwoFactorSecret(c)
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"secret": secret})
}

func (w *Webserver) activateTwoFactorRouteHandler(c echo.Context) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := w.bridge.ActivateTwoFactor(c, body.Code); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) deactivateTwoFactorRouteHandler(c echo.Context) error {
	if err := w.bridge.DeactivateTwoFactor(c); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) setLangRouteHandler(c echo.Context) error {
	var body struct {
		Lang string `json:"lang"`
	}
	if err := c.Bind(&body); err != nil || body.Lang == "" {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	w.locale.Set(c, body.Lang)
	return c.NoContent(http.StatusOK)
}

func queryFromContext(c echo.Context) storefront.Query {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return storefront.Query{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	}
}

func (w *Webserver) listProductsRouteHandler(c echo.Context) error {
	page, err := w.products.ListProducts(c, queryFromContext(c))
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (w *Webserver) userProductsRouteHandler(c echo.Context) error {
	page, err := w.products.UserProducts(c, c.Param("id"), queryFromContext(c))
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (w *Webserver) productByIDRouteHandler(c echo.Context) error {
	product, err := w.products.ProductByID(c, c.Param("id"))
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (w *Webserver) createProductRouteHandler(c echo.Context) error {
	input, err := bindProductInput(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	product, err := w.products.CreateProduct(c, input)
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (w *Webserver) updateProductRouteHandler(c echo.Context) error {
	input, err := bindProductInput(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	product, err := w.products.UpdateProduct(c, c.Param("id"), input)
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (w *Webserver) deleteProductRouteHandler(c echo.Context) error {
	if err := w.products.DeleteProduct(c, c.Param("id")); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) markAvailableRouteHandler(c echo.Context) error {
	if err := w.products.MarkAvailable(c, c.Param("id")); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) buyProductRouteHandler(c echo.Context) error {
	if err := w.products.BuyProduct(c, c.Param("id")); err != nil {
		return w.renderError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (w *Webserver) checkoutRouteHandler(c echo.Context) error {
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	url, err := w.products.Checkout(c, body.ProductID)
	if err != nil {
		return w.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// bindProductInput accepts both JSON bodies and browser multipart
// submissions carrying an image upload.
func bindProductInput(c echo.Context) (storefront.ProductInput, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		var body struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Price       float64 `json:"price"`
		}
		if err := c.Bind(&body); err != nil {
			return storefront.ProductInput{}, err
		}
		return storefront.ProductInput{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
		}, nil
	}

	price, _ := strconv.ParseFloat(c.FormValue("price"), 64)
	input := storefront.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
	}

	if header, err := c.FormFile("image"); err == nil {
		file, err := header.Open()
		if err != nil {
			return storefront.ProductInput{}, err
		}
		defer file.Close()

		// Buffered so the upstream request can be built after the
		// incoming request body is closed.
		content, err := io.ReadAll(file)
		if err != nil {
			return storefront.ProductInput{}, err
		}

		input.Image = &backend.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      bytes.NewReader(content),
		}
	}

	return input, nil
}
