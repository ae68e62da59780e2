package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatflow-service/internal/apperr"
	"chatflow-service/pkg/config"

	"go.uber.org/zap"
)

// User is the account record held by the external identity provider
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewUser is the payload for creating an identity account
type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserUpdate is a partial update of an identity account; nil leaves a field
// unchanged
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Session is the result of a successful credential sign-in
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Provider is the identity operations the service depends on. Handlers take
// this interface so tests can substitute a fake.
type Provider interface {
	CreateUser(ctx context.Context, user NewUser) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error_description"`
}

// HTTPProvider talks to the identity provider's admin and token endpoints
// using a service key
type HTTPProvider struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPProvider(cfg *config.IdentityConfig, logger *zap.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateUser registers an account with the identity provider
func (p *HTTPProvider) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	p.logger.Info("Creating identity user", zap.String("email", user.Email), zap.String("role", user.Role))

	var created User
	if err := p.do(ctx, http.MethodPost, "/admin/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUser fetches one account by id
func (p *HTTPProvider) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := p.do(ctx, http.MethodGet, "/admin/users/"+id, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser partial-updates one account
func (p *HTTPProvider) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	p.logger.Info("Updating identity user", zap.String("user_id", id))

	var user User
	if err := p.do(ctx, http.MethodPut, "/admin/users/"+id, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes one account
func (p *HTTPProvider) DeleteUser(ctx context.Context, id string) error {
	p.logger.Info("Deleting identity user", zap.String("user_id", id))
	return p.do(ctx, http.MethodDelete, "/admin/users/"+id, nil, nil)
}

// SignIn exchanges credentials for a provider session
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	p.logger.Info("Signing in identity user", zap.String("email", email))

	payload := map[string]string{"email": email, "password": password}
	var session Session
	if err := p.do(ctx, http.MethodPost, "/token?grant_type=password", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		p.logger.Error("Failed to create identity request", zap.Error(err))
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("Identity request failed", zap.String("path", path), zap.Error(err))
		return apperr.Newf(apperr.Unknown, "Identity provider unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("Failed to read identity response", zap.Error(err))
		return err
	}

	if resp.StatusCode >= 400 {
		message := p.errorMessage(resp.StatusCode, body)
		p.logger.Error("Identity request returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.String("message", message))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return apperr.NotFoundf("%s", message)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return apperr.Conflictf("%s", message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Unauthorizedf("%s", message)
		default:
			return apperr.Newf(apperr.Unknown, "%s", message)
		}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			p.logger.Error("Failed to parse identity response", zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *HTTPProvider) errorMessage(status int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return fmt.Sprintf("identity provider error: %d", status)
}
