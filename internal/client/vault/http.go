package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

// HTTPClient talks to the vault server over its JSON HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on authenticated requests.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

type registerRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type saltRequest struct {
	Username string `json:"username"`
}

type saltResponse struct {
	Salt []byte `json:"salt"`
}

type loginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type loginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	VaultID string `json:"vault_id"`
}

type manifestResponse struct {
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	ETag       string    `json:"etag"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type putManifestRequest struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

type putManifestResponse struct {
	ETag    string `json:"etag"`
	Version int64  `json:"version"`
}

func (c *HTTPClient) Register(ctx context.Context, username string, salt, verifier []byte) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", nil,
		registerRequest{Username: username, Salt: salt, Verifier: verifier}, nil)
	if errors.Is(err, common.ErrVersionConflict) {
		// 409 on register means the username is taken
		return common.ErrorAlreadyExists
	}
	return err
}

func (c *HTTPClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	var resp saltResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/salt", nil, saltRequest{Username: username}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Salt, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, verifier []byte) (*Session, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, loginRequest{Username: username, Verifier: verifier}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &Session{Token: resp.Token, UserID: resp.UserID, VaultID: resp.VaultID}, nil
}

func (c *HTTPClient) GetManifest(ctx context.Context) (*EncryptedManifest, error) {
	var resp manifestResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/vault/manifest", nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &EncryptedManifest{
		Ciphertext: resp.Ciphertext,
		Nonce:      resp.Nonce,
		ETag:       resp.ETag,
		Version:    resp.Version,
		UpdatedAt:  resp.UpdatedAt,
	}, nil
}

func (c *HTTPClient) PutManifest(ctx context.Context, ciphertext, nonce []byte, etag string) (string, int64, error) {
	headers := map[string]string{}
	if etag != "" {
		headers["If-Match"] = etag
	}

	var resp putManifestResponse
	err := c.doJSON(ctx, http.MethodPut, "/api/vault/manifest", headers,
		putManifestRequest{Ciphertext: ciphertext, Nonce: nonce}, &resp)
	if err != nil {
		return "", 0, err
	}
	return resp.ETag, resp.Version, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/ping", nil, nil, nil)
}

// doJSON performs one request/response cycle and maps HTTP status codes
// onto the shared error taxonomy.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", common.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrManifestNotFound
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusPreconditionFailed:
		return common.ErrVersionConflict
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", common.ErrServerUnavailable, resp.StatusCode)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
