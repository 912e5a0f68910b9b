package types

import (
	"errors"
	"strings"
)

func (s *UnitTestSuite) TestErrJoinsTypedAndInner() {
	inner := errors.New("disk full")
	err := Err(ErrStorage, inner, "write %s", ".env")
	s.ErrorIs(err, ErrStorage)
	s.ErrorIs(err, inner)
	s.Contains(err.Error(), "write .env")

	s.ErrorIs(Err(ErrConfig, nil, ""), ErrConfig)
}

func (s *UnitTestSuite) TestMissingErr() {
	s.NoError(MissingErr("quote", nil))
	err := MissingErr("quote", []string{KeyCurrencyCode, KeyPartnerID})
	s.ErrorIs(err, ErrConfig)
	s.ErrorContains(err, "quote: missing required values: CURRENCY_CODE, PARTNER_ID")
}

func (s *UnitTestSuite) TestUpstreamError() {
	err := NewUpstreamError("inventory", 503, []byte("busy"), nil)
	s.ErrorIs(err, ErrUpstream)
	s.Equal("inventory: unexpected status 503: busy", err.Error())

	cause := errors.New("bad json")
	var target *UpstreamError
	wrapped := Err(ErrUpstream, NewUpstreamError("quote", 200, nil, cause), "")
	s.Require().ErrorAs(wrapped, &target)
	s.Equal(200, target.StatusCode)
	s.ErrorIs(wrapped, cause)
	s.NotErrorIs(wrapped, ErrAuth)
}

func (s *UnitTestSuite) TestUpstreamErrorTruncatesBody() {
	err := NewUpstreamError("order", 500, []byte(strings.Repeat("x", maxErrorBody+10)), nil)
	s.True(strings.HasSuffix(err.Body, "...(truncated)"))
	s.Len(err.Body, maxErrorBody+len("...(truncated)"))
}
