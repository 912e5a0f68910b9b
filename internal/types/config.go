package types

import (
	"strconv"
	"strings"
	"time"
)

// Configuration keys. They are read from the state file first and from the process environment second.
const (
	KeyUsername           = "USERNAME"
	KeySecret             = "SECRET"
	KeyBaseURL            = "BASE_URL"
	KeyCustomerNumber     = "CUSTOMER_NUMBER"
	KeyServiceID          = "SERVICE_ID"
	KeyCurrencyCode       = "CURRENCY_CODE"
	KeyPartnerID          = "PARTNER_ID"
	KeyProductCode        = "PRODUCT_CODE"
	KeyProductName        = "PRODUCT_NAME"
	KeyReferenceIP        = "LUMEN_IP"
	KeyBandwidthFull      = "BANDWIDTH_FULL"
	KeyBandwidthHeartbeat = "BANDWIDTH_HEARTBEAT"
	KeyExternalIDPrefix   = "EXTERNAL_ID_PREFIX"
	KeyOrderProductCode   = "ORDER_PRODUCT_CODE"
	KeyOrderProductName   = "ORDER_PRODUCT_NAME"
	KeyOrderQuantity      = "ORDER_QUANTITY"
	KeyContactName        = "CONTACT_NAME"
	KeyContactRole        = "CONTACT_ROLE"
	KeyContactEmail       = "CONTACT_EMAIL"
	KeyContactOrg         = "CONTACT_ORG"
	KeyContactPhone       = "CONTACT_PHONE"
	KeyEgressProbeURL     = "EGRESS_PROBE_URL"
	KeyHTTPTimeout        = "HTTP_TIMEOUT_SECONDS"
	KeyTokenBuffer        = "TOKEN_EXPIRY_BUFFER_SECONDS"
	KeyPayloadProfile     = "PAYLOAD_PROFILE"
	KeyQuoteTopicArn      = "QUOTE_TOPIC_ARN"
	KeySNSEndpoint        = "SNS_ENDPOINT"
	KeyPushgatewayURL     = "PUSHGATEWAY_URL"
)

const (
	DefaultBaseURL          = "https://api.lumen.com"
	DefaultEgressProbeURL   = "https://ifconfig.me"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultTokenBuffer      = 60 * time.Second
	DefaultOrderProductCode = "718"
	DefaultOrderProductName = "Internet On-Demand"
	DefaultOrderQuantity    = 1
)

// Contact is the optional contact block attached to an order.
type Contact struct {
	Name  string
	Role  string
	Email string
	Org   string
	Phone string
}

// IsZero reports whether every contact field is empty.
func (c Contact) IsZero() bool {
	return c.Name == "" && c.Role == "" && c.Email == "" && c.Org == "" && c.Phone == ""
}

// Config is the explicit configuration snapshot for one workflow run. It is loaded once at start-up
// and handed to each component; nothing reads the process environment after that.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string

	CustomerNumber string
	ServiceID      string
	CurrencyCode   string
	PartnerID      string
	ProductCode    string
	ProductName    string

	ReferenceAddress   string
	BandwidthFull      string
	BandwidthHeartbeat string

	ExternalIDPrefix string
	OrderProductCode string
	OrderProductName string
	OrderQuantity    int
	Contact          Contact

	EgressProbeURL string
	HTTPTimeout    time.Duration
	TokenBuffer    time.Duration

	PayloadProfile string
	QuoteTopicArn  string
	SNSEndpoint    string
	PushgatewayURL string
}

// LookupFunc resolves a configuration key. ok is false when the key is not set anywhere.
type LookupFunc func(key string) (value string, ok bool)

// Chain returns a LookupFunc that tries each lookup in order and returns the first non-empty value.
func Chain(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(key); ok && strings.TrimSpace(v) != "" {
				return v, true
			}
		}
		return "", false
	}
}

// LoadConfig builds a Config from lookup, applying defaults. Only malformed numeric values fail here;
// missing required values are reported by the component that needs them.
func LoadConfig(lookup LookupFunc) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok {
			if t := strings.TrimSpace(v); t != "" {
				return t
			}
		}
		return def
	}
	cfg := Config{
		ClientID:           get(KeyUsername, ""),
		ClientSecret:       get(KeySecret, ""),
		BaseURL:            strings.TrimRight(get(KeyBaseURL, DefaultBaseURL), "/"),
		CustomerNumber:     get(KeyCustomerNumber, ""),
		ServiceID:          get(KeyServiceID, ""),
		CurrencyCode:       get(KeyCurrencyCode, ""),
		PartnerID:          get(KeyPartnerID, ""),
		ProductCode:        get(KeyProductCode, ""),
		ProductName:        get(KeyProductName, ""),
		ReferenceAddress:   get(KeyReferenceIP, ""),
		BandwidthFull:      get(KeyBandwidthFull, ""),
		BandwidthHeartbeat: get(KeyBandwidthHeartbeat, ""),
		ExternalIDPrefix:   get(KeyExternalIDPrefix, ""),
		OrderProductCode:   get(KeyOrderProductCode, DefaultOrderProductCode),
		OrderProductName:   get(KeyOrderProductName, DefaultOrderProductName),
		Contact: Contact{
			Name:  get(KeyContactName, ""),
			Role:  get(KeyContactRole, ""),
			Email: get(KeyContactEmail, ""),
			Org:   get(KeyContactOrg, ""),
			Phone: get(KeyContactPhone, ""),
		},
		EgressProbeURL: get(KeyEgressProbeURL, DefaultEgressProbeURL),
		PayloadProfile: get(KeyPayloadProfile, ""),
		QuoteTopicArn:  get(KeyQuoteTopicArn, ""),
		SNSEndpoint:    get(KeySNSEndpoint, ""),
		PushgatewayURL: get(KeyPushgatewayURL, ""),
	}

	var err error
	if cfg.OrderQuantity, err = parsePositiveInt(KeyOrderQuantity, get(KeyOrderQuantity, ""), DefaultOrderQuantity); err != nil {
		return Config{}, err
	}
	timeout, err := parsePositiveInt(KeyHTTPTimeout, get(KeyHTTPTimeout, ""), int(DefaultHTTPTimeout/time.Second))
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout = time.Duration(timeout) * time.Second

	buffer := DefaultTokenBuffer
	if raw := get(KeyTokenBuffer, ""); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return Config{}, Err(ErrConfig, convErr, "%s must be a non-negative integer, got %q", KeyTokenBuffer, raw)
		}
		buffer = time.Duration(n) * time.Second
	}
	cfg.TokenBuffer = buffer
	return cfg, nil
}

// ValidateWorkflow checks the identifiers every inventory lookup needs.
func (c Config) ValidateWorkflow() error {
	var missing []string
	if c.CustomerNumber == "" {
		missing = append(missing, KeyCustomerNumber)
	}
	if c.ServiceID == "" {
		missing = append(missing, KeyServiceID)
	}
	return MissingErr("workflow", missing)
}

// ValidateRun checks every value a full run can need, so that a run that would stop at the quote step
// for want of configuration stops before the token exchange instead.
func (c Config) ValidateRun() error {
	required := []struct {
		key, value string
	}{
		{KeyCustomerNumber, c.CustomerNumber},
		{KeyServiceID, c.ServiceID},
		{KeyReferenceIP, c.ReferenceAddress},
		{KeyBandwidthFull, c.BandwidthFull},
		{KeyBandwidthHeartbeat, c.BandwidthHeartbeat},
		{KeyCurrencyCode, c.CurrencyCode},
		{KeyPartnerID, c.PartnerID},
		{KeyProductCode, c.ProductCode},
		{KeyProductName, c.ProductName},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	return MissingErr("workflow", missing)
}

func parsePositiveInt(key, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, Err(ErrConfig, err, "%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
