// Package supabase resolves bearer tokens against the hosted auth provider's
// GoTrue user endpoint.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/okivest/investment-platform/internal/invest/domain"
)

type Authenticator struct {
	log     *slog.Logger
	baseURL string
	anonKey string
	client  *http.Client
}

func NewAuthenticator(log *slog.Logger, baseURL, anonKey string) *Authenticator {
	return &Authenticator{
		log:     log,
		baseURL: baseURL,
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Authenticator) GetUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.log.Debug("token rejected by auth provider", "status", resp.StatusCode)
		return "", domain.ErrUnauthorized
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", domain.ErrUnauthorized
	}
	return user.ID, nil
}
