package types

import (
	"strconv"
	"strings"
)

// State keys written by the workflow. They live in the same namespace as the configuration keys.
const (
	KeyAccessToken        = "ACCESS_TOKEN"
	KeyAccessTokenExpiry  = "ACCESS_TOKEN_EXPIRES_AT"
	KeyBillingAccountID   = "BILLING_ACCOUNT_ID"
	KeyBillingAccountName = "BILLING_ACCOUNT_NAME"
	KeyMasterSiteID       = "MASTER_SITE_ID"
	KeyServiceBandwidth   = "SERVICE_BANDWIDTH"
	KeyEgressIP           = "EGRESS_IP"
	KeyQuoteBandwidth     = "QUOTE_BANDWIDTH"
	KeyQuoteID            = "QUOTE_ID"
	KeyExternalID         = "EXTERNAL_ID"
	KeyOrderID            = "ORDER_ID"
	KeyOrderConfirmation  = "ORDER_CONFIRMATION"
)

// MaxExternalIDLength bounds the external identifier submitted with an order.
const MaxExternalIDLength = 20

// CredentialRecord is the cached bearer credential. A nil ExpiresAt means the expiry is unknown and
// the record must be treated as expired.
type CredentialRecord struct {
	Token     string
	ExpiresAt *int64 // epoch seconds
}

// CredentialFromState reads the credential keys. An expiry that doesn't parse is dropped.
func CredentialFromState(get func(string) (string, bool)) CredentialRecord {
	var rec CredentialRecord
	if v, ok := get(KeyAccessToken); ok {
		rec.Token = strings.TrimSpace(v)
	}
	if v, ok := get(KeyAccessTokenExpiry); ok {
		if at, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			rec.ExpiresAt = &at
		}
	}
	return rec
}

// InventoryFacts are the values derived from one inventory query.
type InventoryFacts struct {
	// Entries is the number of service inventory entries in the response.
	Entries            int
	BillingAccountID   string
	BillingAccountName string
	MasterSiteID       string
	// ServiceBandwidth is lower-cased.
	ServiceBandwidth string
}

// StateUpdates renders the facts for persistence. Every fact key is written so that a value absent
// from the latest response replaces whatever a previous run stored.
func (f InventoryFacts) StateUpdates() map[string]string {
	return map[string]string{
		KeyBillingAccountID:   f.BillingAccountID,
		KeyBillingAccountName: f.BillingAccountName,
		KeyMasterSiteID:       f.MasterSiteID,
		KeyServiceBandwidth:   f.ServiceBandwidth,
	}
}

// BandwidthDecision is the outcome of comparing the egress address to the reference address.
type BandwidthDecision struct {
	EgressAddress    string
	ReferenceAddress string
	SelectedTier     string
	Matched          bool
}

// QuoteInput carries everything a price request needs.
type QuoteInput struct {
	CustomerNumber string
	CurrencyCode   string
	MasterSiteID   string
	PartnerID      string
	ProductCode    string
	ProductName    string
	Bandwidth      string
}

// QuoteRecord is the vendor's answer to a price request.
type QuoteRecord struct {
	ID        string
	Bandwidth string
}

// OrderInput carries everything an order request needs.
type OrderInput struct {
	CustomerNumber     string
	BillingAccountID   string
	BillingAccountName string
	QuoteID            string
	ServiceID          string
	ExternalIDPrefix   string
	ProductCode        string
	ProductName        string
	Quantity           int
	Contact            Contact
}

// OrderRecord is the vendor's confirmation of a submitted order.
type OrderRecord struct {
	ID         string
	ExternalID string
	QuoteID    string
	StatusCode int
	Raw        []byte
}

// QuoteEvent is handed to quote observers after a successful price request.
type QuoteEvent struct {
	RunID          string `json:"run_id"`
	QuoteID        string `json:"quote_id"`
	ServiceID      string `json:"service_id"`
	CustomerNumber string `json:"customer_number"`
	FromBandwidth  string `json:"from_bandwidth"`
	ToBandwidth    string `json:"to_bandwidth"`
	EgressAddress  string `json:"egress_address"`
	Matched        bool   `json:"matched"`
	At             int64  `json:"at"`
}
