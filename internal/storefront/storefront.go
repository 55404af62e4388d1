package storefront

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"shopfront/internal/auth"
	"shopfront/internal/backend"
)

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
	ImageURL    string  `json:"imageUrl"`
	OwnerID     string  `json:"userId"`
}

type PageMeta struct {
	NextPageURL string `json:"nextPageUrl"`
	Total       int    `json:"total"`
}

type ProductPage struct {
	Data []Product `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// Query is the browse/filter state forwarded to the backend as query
// parameters. Zero values are omitted.
type Query struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (q Query) encode() string {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if encoded := params.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

// ProductInput is a create/update payload. When Image is set the request
// goes out as multipart; otherwise plain JSON.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       *backend.File
}

func (in ProductInput) body() any {
	form := backend.Form{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
	}
	if in.Image != nil {
		form["image"] = in.Image
	}
	return form
}

type crudResponse struct {
	Message string  `json:"message"`
	Data    Product `json:"data"`
}

// Service wraps the product and checkout endpoints. Every operation runs
// behind the authenticated guard before it touches the backend.
type Service struct {
	bridge *auth.Bridge
}

func New(bridge *auth.Bridge) *Service {
	return &Service{bridge: bridge}
}

func (s *Service) ListProducts(c echo.Context, q Query) (*ProductPage, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return nil, err
	}

	var page ProductPage
	err := s.bridge.Backend().Get(c.Request().Context(), backend.ProductsPath+q.encode(), s.bridge.Meta(c), &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) UserProducts(c echo.Context, userID string, q Query) (*ProductPage, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return nil, err
	}

	var page ProductPage
	err := s.bridge.Backend().Get(c.Request().Context(), backend.UserProductsPath(userID)+q.encode(), s.bridge.Meta(c), &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) ProductByID(c echo.Context, id string) (*Product, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return nil, err
	}

	var res crudResponse
	err := s.bridge.Backend().Get(c.Request().Context(), backend.ProductByIDPath(id), s.bridge.Meta(c), &res)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *Service) CreateProduct(c echo.Context, input ProductInput) (*Product, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return nil, err
	}

	var res crudResponse
	err := s.bridge.Backend().Post(c.Request().Context(), backend.ProductsPath, s.bridge.Meta(c), input.body(), &res)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *Service) UpdateProduct(c echo.Context, id string, input ProductInput) (*Product, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return nil, err
	}

	var res crudResponse
	err := s.bridge.Backend().Put(c.Request().Context(), backend.ProductByIDPath(id), s.bridge.Meta(c), input.body(), &res)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *Service) DeleteProduct(c echo.Context, id string) error {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return err
	}
	return s.bridge.Backend().Delete(c.Request().Context(), backend.ProductByIDPath(id), s.bridge.Meta(c), nil)
}

func (s *Service) MarkAvailable(c echo.Context, id string) error {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return err
	}
	return s.bridge.Backend().Put(c.Request().Context(), backend.MarkAvailablePath(id), s.bridge.Meta(c), map[string]any{}, nil)
}

func (s *Service) BuyProduct(c echo.Context, id string) error {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return err
	}
	return s.bridge.Backend().Post(c.Request().Context(), backend.BuyProductPath(id), s.bridge.Meta(c), nil, nil)
}

// Checkout asks the backend's payment integration for a hosted checkout
// session and returns its URL.
func (s *Service) Checkout(c echo.Context, productID string) (string, error) {
	if _, err := s.bridge.RequireAuthenticated(c); err != nil {
		return "", err
	}

	body := struct {
		ProductID string `json:"productId"`
	}{productID}

	var res struct {
		URL string `json:"url"`
	}
	err := s.bridge.Backend().Post(c.Request().Context(), backend.CheckoutPath, s.bridge.Meta(c), body, &res)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
