package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"naasprov/internal/ports"
	"naasprov/internal/transport"
	"naasprov/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const opToken = "token"

// TokenManagerConfig configures a TokenManager. ClientID and ClientSecret are the long-lived identity
// exchanged for a short-lived bearer token. Buffer is the expiry margin Refresh applies when it is not
// forced; zero means no margin.
type TokenManagerConfig struct {
	ClientID     string
	ClientSecret string
	TokenPath    string
	Buffer       time.Duration
	Now          func() time.Time
}

// TokenManager caches the bearer credential in the state store and refreshes it lazily. There is no
// background refresh: the first caller that observes an expiring token pays for the exchange.
type TokenManager struct {
	store  ports.StateStore
	client *transport.Client
	config TokenManagerConfig
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

func NewTokenManager(store ports.StateStore, client *transport.Client, cfg TokenManagerConfig) *TokenManager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	path := strings.TrimSpace(cfg.TokenPath)
	if path == "" {
		path = types.DefaultProfile().TokenPath
	}
	return &TokenManager{
		store:  store,
		client: client,
		config: TokenManagerConfig{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			TokenPath:    path,
			Buffer:       max(cfg.Buffer, 0),
			Now:          now,
		},
	}
}

// Current returns the cached credential without validating it.
func (m *TokenManager) Current() types.CredentialRecord {
	return types.CredentialFromState(m.store.Get)
}

// IsExpired reports whether the cached credential is missing, has no recorded expiry, or expires
// within buffer.
func (m *TokenManager) IsExpired(buffer time.Duration) bool {
	return isExpired(m.Current(), m.config.Now(), buffer)
}

func isExpired(rec types.CredentialRecord, now time.Time, buffer time.Duration) bool {
	if rec.Token == "" || rec.ExpiresAt == nil {
		return true
	}
	if buffer < 0 {
		buffer = 0
	}
	return now.Add(buffer).Unix() >= *rec.ExpiresAt
}

// GetValid returns the cached credential when it outlives buffer, and refreshes it otherwise.
func (m *TokenManager) GetValid(ctx context.Context, buffer time.Duration) (types.CredentialRecord, error) {
	if rec := m.Current(); !isExpired(rec, m.config.Now(), buffer) {
		return rec, nil
	}
	// Another process may have refreshed since this one loaded the store.
	if err := m.store.Reload(ctx); err != nil {
		return types.CredentialRecord{}, err
	}
	if rec := m.Current(); !isExpired(rec, m.config.Now(), buffer) {
		log.Debug("using access token refreshed by another process")
		return rec, nil
	}
	return m.exchange(ctx)
}

// Refresh exchanges the client identity for a new token. Without force a cached token that outlives the
// configured buffer is returned as is.
func (m *TokenManager) Refresh(ctx context.Context, force bool) (types.CredentialRecord, error) {
	if !force {
		if rec := m.Current(); !isExpired(rec, m.config.Now(), m.config.Buffer) {
			return rec, nil
		}
	}
	return m.exchange(ctx)
}

func (m *TokenManager) exchange(ctx context.Context) (types.CredentialRecord, error) {
	var missing []string
	if m.config.ClientID == "" {
		missing = append(missing, types.KeyUsername)
	}
	if m.config.ClientSecret == "" {
		missing = append(missing, types.KeySecret)
	}
	if err := types.MissingErr(opToken, missing); err != nil {
		return types.CredentialRecord{}, err
	}

	basic := base64.StdEncoding.EncodeToString([]byte(m.config.ClientID + ":" + m.config.ClientSecret))
	form := url.Values{"grant_type": {"client_credentials"}}
	res, err := m.client.Do(ctx, transport.Request{
		Op:     opToken,
		Method: http.MethodPost,
		Path:   m.config.TokenPath,
		Headers: map[string]string{
			"Content-Type":  transport.ContentTypeForm,
			"Authorization": "Basic " + basic,
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return types.CredentialRecord{}, err
	}
	if !res.OK() {
		return types.CredentialRecord{}, types.Err(types.ErrAuth, res.StatusError(opToken), "token request rejected")
	}

	var body tokenResponse
	if err := res.DecodeJSON(opToken, &body); err != nil {
		return types.CredentialRecord{}, err
	}
	token := strings.TrimSpace(body.AccessToken)
	if token == "" {
		return types.CredentialRecord{}, types.Err(types.ErrAuth, nil, "token response carried no access_token")
	}

	rec := types.CredentialRecord{Token: token}
	updates := map[string]string{types.KeyAccessToken: token}
	if lifetime, ok := parseExpiresIn(body.ExpiresIn); ok {
		at := m.config.Now().Unix() + lifetime
		rec.ExpiresAt = &at
		updates[types.KeyAccessTokenExpiry] = strconv.FormatInt(at, 10)
	} else {
		// Without a lifetime the token is treated as expired on the next check.
		updates[types.KeyAccessTokenExpiry] = ""
	}
	if err := m.store.Set(ctx, updates); err != nil {
		return types.CredentialRecord{}, err
	}

	log.WithFields(log.Fields{"expires_in": string(body.ExpiresIn), "token_type": body.TokenType}).Info("access token refreshed")
	return rec, nil
}

// parseExpiresIn accepts a JSON number or a numeric string.
func parseExpiresIn(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// String implements fmt.Stringer without exposing the token.
func (m *TokenManager) String() string {
	return fmt.Sprintf("TokenManager{client_id=%s}", m.config.ClientID)
}

var _ ports.TokenSource = (*TokenManager)(nil)
