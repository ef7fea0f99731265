package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
)

const (
	defaultBaseURL                = "https://zipcloud.ibsnet.co.jp/api"
	responseBodyReadLimit   int64 = 1 << 16
)

var postalCodePattern = regexp.MustCompile(`^\d{7}$`)

// Client wraps the zipcloud postal code lookup API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the lookup base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the postal lookup client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Address is one lookup hit.
type Address struct {
	Prefecture string
	City       string
	Town       string
}

type lookupResponse struct {
	Status  int     `json:"status"`
	Message *string `json:"message"`
	Results []struct {
		Address1 string `json:"address1"`
		Address2 string `json:"address2"`
		Address3 string `json:"address3"`
	} `json:"results"`
}

// Normalize strips separators from a user-entered postal code.
func Normalize(postalCode string) string {
	s := strings.ReplaceAll(postalCode, "-", "")
	s = strings.ReplaceAll(s, "〒", "")
	return strings.TrimSpace(s)
}

// Validate reports whether the code is a well-formed 7-digit postal code.
func Validate(postalCode string) bool {
	return postalCodePattern.MatchString(Normalize(postalCode))
}

// Lookup resolves a 7-digit postal code to its address parts.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	code := Normalize(postalCode)
	if !postalCodePattern.MatchString(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "郵便番号は7桁の数字で入力してください。")
	}

	endpoint := fmt.Sprintf("%s/search?zipcode=%s", strings.TrimRight(c.baseURL, "/"), url.QueryEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build lookup request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "postal lookup request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("postal lookup returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read lookup response")
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode lookup response")
	}
	if payload.Status != http.StatusOK {
		msg := "postal lookup failed"
		if payload.Message != nil && *payload.Message != "" {
			msg = *payload.Message
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
	if len(payload.Results) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "該当する住所が見つかりませんでした。")
	}

	hit := payload.Results[0]
	return &Address{
		Prefecture: hit.Address1,
		City:       hit.Address2,
		Town:       hit.Address3,
	}, nil
}
