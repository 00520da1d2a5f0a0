// Package ocr implements the OCR client, OCR router, and circuit breaker
// guarding the remote GPU OCR service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rezonia/docingest/internal/model"
)

// DefaultTimeout is the per-call timeout for the GPU OCR service. It is
// deliberately long: cold starts on a GPU-backed service can take well over
// a minute.
const DefaultTimeout = 150 * time.Second

// Client calls the remote GPU-backed OCR service over HTTP, authenticating
// with a short-lived, self-signed bearer token (OIDC-style service-to-
// service auth) rather than a long-lived static API key.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *TokenSigner
	audience   string
}

// TokenSigner mints the bearer token attached to every OCR request. In
// production this wraps a workload-identity private key; tests can build
// one from an HMAC secret.
type TokenSigner struct {
	method jwt.SigningMethod
	key    any
	issuer string
}

func NewHMACSigner(secret []byte, issuer string) *TokenSigner {
	return &TokenSigner{method: jwt.SigningMethodHS256, key: secret, issuer: issuer}
}

// Mint produces a short-lived bearer token scoped to audience.
func (s *TokenSigner) Mint(audience string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.key)
}

// NewClient builds an OCR Client pointed at the given GPU service base URL.
func NewClient(baseURL string, signer *TokenSigner, audience string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		signer:     signer,
		audience:   audience,
	}
}

// Result is the normalized output of an OCR pass, regardless of which path
// produced it.
type Result struct {
	Text      string
	PageCount int
}

// Recognize sends document bytes to the GPU OCR service and returns the
// normalized text and inferred page count.
func (c *Client) Recognize(ctx context.Context, data []byte, filename string) (Result, error) {
	token, err := c.signer.Mint(c.audience)
	if err != nil {
		return Result{}, &model.OCRFatalError{Message: "failed to mint bearer token", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(data))
	if err != nil {
		return Result{}, &model.OCRFatalError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &model.OCRTransientError{Message: "failed to read OCR response body", Cause: err}
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, &model.OCRTransientError{Message: fmt.Sprintf("ocr service returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &model.OCRFatalError{Message: fmt.Sprintf("ocr service returned %d: %s", resp.StatusCode, string(body))}
	}

	var payload struct {
		Text      string `json:"text"`
		PageCount int    `json:"page_count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, &model.OCRFatalError{Message: "failed to parse OCR response", Cause: err}
	}

	return Result{Text: payload.Text, PageCount: payload.PageCount}, nil
}

func classifyTransportError(err error) error {
	if model.IsTransientMessage(err.Error()) {
		return &model.OCRTransientError{Message: err.Error(), Cause: err}
	}
	// Network-level failures (connection refused, DNS, context deadline)
	// are transient by default: the GPU service may simply be cold-starting.
	return &model.OCRTransientError{Message: err.Error(), Cause: err}
}
