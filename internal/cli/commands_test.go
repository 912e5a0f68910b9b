package cli

import (
	"net/http"

	"naasprov/internal/types"
	"naasprov/internal/vendor"

	"github.com/goccy/go-json"
)

const inventoryOneGig = `{"serviceInventory":[{"billingAccount":{"id":"BA-1","name":"Acme"},` +
	`"location":{"masterSiteid":"MS-1"},"productCharacteristic":[{"name":"Bandwidth","value":"1 Gbps"}]}]}`

func (s *UnitTestSuite) TestRunNoChange() {
	s.writeState(s.baseState())
	s.respond("/ProductInventory/v1/inventory", http.StatusOK, inventoryOneGig)

	out, err := s.execute("run", "--egress", "203.0.113.7")
	s.Require().NoError(err)
	s.Equal("no_change\n", out)
	s.Equal(0, s.hitsFor("/Product/v1/priceRequest"))
	s.Equal(0, s.hitsFor("/Customer/v3/Ordering/orderRequest"))

	s.Equal("1 Gbps", s.stateValue(types.KeyQuoteBandwidth))
	s.Equal("203.0.113.7", s.stateValue(types.KeyEgressIP))
	s.Equal("BA-1", s.stateValue(types.KeyBillingAccountID))
	s.Equal("Acme", s.stateValue(types.KeyBillingAccountName))
}

func (s *UnitTestSuite) TestRunPlacesQuoteAndOrderJSON() {
	s.writeState(s.baseState())
	s.respond("/ProductInventory/v1/inventory", http.StatusOK, inventoryOneGig)
	s.respond("/Product/v1/priceRequest", http.StatusOK, `{"id":"Q-1"}`)
	s.respond("/Customer/v3/Ordering/orderRequest", http.StatusOK, `{"id":"O-1"}`)

	out, err := s.execute("run", "--egress", "198.51.100.9", "--format", "json")
	s.Require().NoError(err)

	var r runReport
	s.Require().NoError(json.Unmarshal([]byte(out), &r))
	s.Equal("quote_and_order_placed", r.Outcome)
	s.Equal("10 Mbps", r.Tier)
	s.Equal("Q-1", r.QuoteID)
	s.Equal("O-1", r.OrderID)
	s.NotEmpty(r.RunID)

	s.Equal("Q-1", s.stateValue(types.KeyQuoteID))
	s.Equal("O-1", s.stateValue(types.KeyOrderID))
	raw, err := vendor.DecodeArchive(s.stateValue(types.KeyOrderConfirmation))
	s.Require().NoError(err)
	s.JSONEq(`{"id":"O-1"}`, string(raw))

	confirmation, err := s.execute("status", "--confirmation")
	s.Require().NoError(err)
	s.JSONEq(`{"id":"O-1"}`, confirmation)
}

func (s *UnitTestSuite) TestRunPreflightFailure() {
	s.T().Setenv("CUSTOMER_NUMBER", "")
	s.writeState("BASE_URL=" + s.srv.URL + "\nSERVICE_ID=svc-1\n")

	out, err := s.execute("run", "--egress", "203.0.113.7")
	s.Equal(ExitFailure, GetExitCode(err))
	s.ErrorIs(err, types.ErrConfig)
	s.Contains(out, "failed at step 0 (preflight)")
	s.Equal(0, s.hitsFor("/oauth/v2/token"))
	s.Equal(0, s.hitsFor("/ProductInventory/v1/inventory"))
}

func (s *UnitTestSuite) TestDecidePersistsTier() {
	s.writeState(s.baseState())
	out, err := s.execute("decide", "--egress", " 198.51.100.9 ")
	s.Require().NoError(err)
	s.Contains(out, "QUOTE_BANDWIDTH=10 Mbps")
	s.Equal("10 Mbps", s.stateValue(types.KeyQuoteBandwidth))
	s.Equal("198.51.100.9", s.stateValue(types.KeyEgressIP))
}

func (s *UnitTestSuite) TestTokenForce() {
	s.writeState(s.baseState())
	s.respond("/oauth/v2/token", http.StatusOK, `{"access_token":"forced","expires_in":60}`)

	out, err := s.execute("token", "--force", "--format", "json")
	s.Require().NoError(err)
	var r tokenReport
	s.Require().NoError(json.Unmarshal([]byte(out), &r))
	s.True(r.Refreshed)
	s.NotEmpty(r.ExpiresAt)
	s.Equal("forced", s.stateValue(types.KeyAccessToken))
	s.Equal(1, s.hitsFor("/oauth/v2/token"))
}

func (s *UnitTestSuite) TestQuoteMissingFactsIsUsageError() {
	s.writeState(s.baseState())
	_, err := s.execute("quote")
	s.Equal(ExitUsage, GetExitCode(err))
	s.ErrorIs(err, types.ErrConfig)
	s.ErrorContains(err, types.KeyMasterSiteID)
	s.Equal(0, s.hitsFor("/Product/v1/priceRequest"))
}

func (s *UnitTestSuite) TestStatusRedactsToken() {
	s.writeState(s.baseState() + "QUOTE_ID=Q-9\n")
	out, err := s.execute("status", "--format", "json")
	s.Require().NoError(err)

	var entries []statusEntry
	s.Require().NoError(json.Unmarshal([]byte(out), &entries))
	values := map[string]string{}
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	s.Equal("<redacted>", values[types.KeyAccessToken])
	s.Equal("Q-9", values[types.KeyQuoteID])
	s.NotContains(out, "cached")
}
