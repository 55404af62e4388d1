package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"shopfront/internal/apierror"
)

// Meta carries the per-request auth and locale state the client attaches
// as headers. The token is the opaque backend credential from the current
// session; Lang selects backend-side localized strings.
type Meta struct {
	Token string
	Lang  string
}

// Client is a thin typed wrapper over the backend REST API. It attaches
// headers, encodes bodies (JSON, or multipart when file fields are
// present) and converts every non-2xx response into a normalized
// *apierror.Error. It never retries.
type Client struct {
	baseURL    string
	cookieName string
	httpClient *http.Client
}

func New(baseURL string, cookieName string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		cookieName: cookieName,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Get(ctx context.Context, path string, meta Meta, out any) error {
	return c.do(ctx, http.MethodGet, path, meta, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, meta Meta, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, meta, body, out)
}

func (c *Client) Put(ctx context.Context, path string, meta Meta, body any, out any) error {
	return c.do(ctx, http.MethodPut, path, meta, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, meta Meta, out any) error {
	return c.do(ctx, http.MethodDelete, path, meta, nil, out)
}

func (c *Client) do(ctx context.Context, method string, path string, meta Meta, body any, out any) error {
	reqBody, contentType, err := encodeBody(body)
	if err != nil {
		return apierror.From(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apierror.From(err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if meta.Lang != "" {
		req.Header.Set("X-Lang", meta.Lang)
	}
	if meta.Token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: meta.Token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: there is no payload to classify.
		return apierror.Normalize(nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierror.Normalize(decodeErrorPayload(resp))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty 2xx body, e.g. a DELETE acknowledgement.
			return nil
		}
		return apierror.Normalize(nil)
	}

	return nil
}

// decodeErrorPayload reads the raw error body for normalization. A body
// that isn't valid JSON falls back to the HTTP status text, and the HTTP
// status code fills in when the payload omits its own.
func decodeErrorPayload(resp *http.Response) map[string]any {
	raw := map[string]any{}
	// A literal null body decodes into a nil map, so check for that too.
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || raw == nil {
		raw = map[string]any{"message": http.StatusText(resp.StatusCode)}
	}
	if _, ok := raw["statusCode"]; !ok {
		raw["statusCode"] = float64(resp.StatusCode)
	}
	return raw
}

func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "application/json", nil
	}

	if form, ok := body.(Form); ok && form.HasFile() {
		return form.encodeMultipart()
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(buf), "application/json", nil
}
