package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"naasprov/internal/transport"
	"naasprov/internal/types"
)

func (s *UnitTestSuite) TestIsExpired() {
	m := s.manager("http://unused", "id", "secret")
	ctx := context.Background()

	// No token at all.
	s.True(m.IsExpired(0))

	// Token without expiry.
	s.Require().NoError(s.store.Set(ctx, map[string]string{types.KeyAccessToken: "t"}))
	s.True(m.IsExpired(0))

	// Unparseable expiry counts as absent.
	s.Require().NoError(s.store.Set(ctx, map[string]string{types.KeyAccessTokenExpiry: "soon"}))
	s.True(m.IsExpired(0))

	buffer := 60 * time.Second
	at := s.now.Unix() + 60 + 1
	s.Require().NoError(s.store.Set(ctx, map[string]string{types.KeyAccessTokenExpiry: strconv.FormatInt(at, 10)}))
	s.False(m.IsExpired(buffer))

	at = s.now.Unix() + 60
	s.Require().NoError(s.store.Set(ctx, map[string]string{types.KeyAccessTokenExpiry: strconv.FormatInt(at, 10)}))
	s.True(m.IsExpired(buffer))

	at = s.now.Unix() - 1
	s.Require().NoError(s.store.Set(ctx, map[string]string{types.KeyAccessTokenExpiry: strconv.FormatInt(at, 10)}))
	s.True(m.IsExpired(0))
}

func (s *UnitTestSuite) TestGetValidReusesCachedToken() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	at := s.now.Unix() + 3600
	s.Require().NoError(s.store.Set(context.Background(), map[string]string{
		types.KeyAccessToken:       "cached",
		types.KeyAccessTokenExpiry: strconv.FormatInt(at, 10),
	}))

	rec, err := s.manager(srv.URL, "id", "secret").GetValid(context.Background(), time.Minute)
	s.Require().NoError(err)
	s.Equal("cached", rec.Token)
	s.Require().NotNil(rec.ExpiresAt)
	s.Equal(at, *rec.ExpiresAt)
	s.EqualValues(0, s.calls.Load())
}

func (s *UnitTestSuite) TestGetValidRefreshesAndPersists() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/oauth/v2/token", r.URL.Path)
		id, secret, ok := r.BasicAuth()
		s.True(ok)
		s.Equal("id", id)
		s.Equal("secret", secret)
		s.Equal("application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		s.NoError(r.ParseForm())
		s.Equal("client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3599}`)
	})

	rec, err := s.manager(srv.URL, "id", "secret").GetValid(context.Background(), time.Minute)
	s.Require().NoError(err)
	s.Equal("fresh", rec.Token)
	s.Require().NotNil(rec.ExpiresAt)
	s.Equal(s.now.Unix()+3599, *rec.ExpiresAt)
	s.EqualValues(1, s.calls.Load())

	v, _ := s.store.Get(types.KeyAccessToken)
	s.Equal("fresh", v)
	v, _ = s.store.Get(types.KeyAccessTokenExpiry)
	s.Equal(strconv.FormatInt(s.now.Unix()+3599, 10), v)
}

func (s *UnitTestSuite) TestExpiresInAsString() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"access_token":"fresh","expires_in":"120"}`)
	})
	rec, err := s.manager(srv.URL, "id", "secret").Refresh(context.Background(), true)
	s.Require().NoError(err)
	s.Require().NotNil(rec.ExpiresAt)
	s.Equal(s.now.Unix()+120, *rec.ExpiresAt)
}

func (s *UnitTestSuite) TestMissingExpiresInLeavesTokenExpired() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"access_token":"fresh"}`)
	})
	m := s.manager(srv.URL, "id", "secret")
	rec, err := m.Refresh(context.Background(), true)
	s.Require().NoError(err)
	s.Nil(rec.ExpiresAt)
	s.True(m.IsExpired(0))
}

func (s *UnitTestSuite) TestRefreshWithoutForceKeepsValidToken() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"access_token":"fresh","expires_in":3600}`)
	})
	s.Require().NoError(s.store.Set(context.Background(), map[string]string{
		types.KeyAccessToken:       "cached",
		types.KeyAccessTokenExpiry: strconv.FormatInt(s.now.Unix()+3600, 10),
	}))
	m := s.manager(srv.URL, "id", "secret")

	rec, err := m.Refresh(context.Background(), false)
	s.Require().NoError(err)
	s.Equal("cached", rec.Token)
	s.EqualValues(0, s.calls.Load())

	rec, err = m.Refresh(context.Background(), true)
	s.Require().NoError(err)
	s.Equal("fresh", rec.Token)
	s.EqualValues(1, s.calls.Load())
}

func (s *UnitTestSuite) TestRefreshWithoutForceHonorsConfiguredBuffer() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"access_token":"fresh","expires_in":3600}`)
	})
	s.Require().NoError(s.store.Set(context.Background(), map[string]string{
		types.KeyAccessToken:       "cached",
		types.KeyAccessTokenExpiry: strconv.FormatInt(s.now.Unix()+300, 10),
	}))
	m := NewTokenManager(s.store, transport.NewClient(srv.URL, nil, 5*time.Second), TokenManagerConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Buffer:       10 * time.Minute,
		Now:          func() time.Time { return s.now },
	})

	rec, err := m.Refresh(context.Background(), false)
	s.Require().NoError(err)
	s.Equal("fresh", rec.Token)
	s.EqualValues(1, s.calls.Load())
}

func (s *UnitTestSuite) TestMissingCredentialsIsConfigError() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {})
	_, err := s.manager(srv.URL, "", "  ").GetValid(context.Background(), time.Minute)
	s.ErrorIs(err, types.ErrConfig)
	s.ErrorContains(err, types.KeyUsername)
	s.ErrorContains(err, types.KeySecret)
	s.EqualValues(0, s.calls.Load())
}

func (s *UnitTestSuite) TestRejectedExchangeIsAuthError() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"error":"invalid_client"}`)
	})
	_, err := s.manager(srv.URL, "id", "wrong").GetValid(context.Background(), time.Minute)
	s.ErrorIs(err, types.ErrAuth)
	s.ErrorContains(err, "invalid_client")
	_, ok := s.store.Get(types.KeyAccessToken)
	s.False(ok)
}

func (s *UnitTestSuite) TestResponseWithoutTokenIsAuthError() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"expires_in":3600}`)
	})
	_, err := s.manager(srv.URL, "id", "secret").Refresh(context.Background(), true)
	s.ErrorIs(err, types.ErrAuth)
}

func (s *UnitTestSuite) TestUnparseableResponseIsUpstreamError() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html>maintenance</html>`)
	})
	_, err := s.manager(srv.URL, "id", "secret").Refresh(context.Background(), true)
	s.ErrorIs(err, types.ErrUpstream)
	s.NotErrorIs(err, types.ErrAuth)
}

func (s *UnitTestSuite) TestUnreachableProviderIsUpstreamError() {
	srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()
	_, err := s.manager(url, "id", "secret").Refresh(context.Background(), true)
	s.ErrorIs(err, types.ErrUpstream)
}

func (s *UnitTestSuite) TestParseExpiresIn() {
	n, ok := parseExpiresIn([]byte(`3600`))
	s.True(ok)
	s.EqualValues(3600, n)
	n, ok = parseExpiresIn([]byte(`"59"`))
	s.True(ok)
	s.EqualValues(59, n)
	n, ok = parseExpiresIn([]byte(`12.9`))
	s.True(ok)
	s.EqualValues(12, n)
	_, ok = parseExpiresIn([]byte(`null`))
	s.False(ok)
	_, ok = parseExpiresIn(nil)
	s.False(ok)
	_, ok = parseExpiresIn([]byte(`"abc"`))
	s.False(ok)
}
