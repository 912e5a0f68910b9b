package types

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// PayloadProfile holds the vendor contract constants: endpoint paths, fixed payload values and inventory
// filters. The vendor has revised these shapes several times, so a contract change is a profile change.
type PayloadProfile struct {
	TokenPath        string `yaml:"token_path"`
	InventoryPath    string `yaml:"inventory_path"`
	PriceRequestPath string `yaml:"price_request_path"`
	OrderRequestPath string `yaml:"order_request_path"`

	SourceSystem            string `yaml:"source_system"`
	PriceRequestDescription string `yaml:"price_request_description"`

	Inventory InventoryProfile `yaml:"inventory"`
	Order     OrderProfile     `yaml:"order"`
}

type InventoryProfile struct {
	PageNumber  int    `yaml:"page_number"`
	PageSize    int    `yaml:"page_size"`
	NaaSEnabled bool   `yaml:"naas_enabled"`
	Entitled    bool   `yaml:"entitled"`
	ServiceType string `yaml:"service_type"`
	// BandwidthCharacteristic is the productCharacteristic name holding the service speed.
	BandwidthCharacteristic string `yaml:"bandwidth_characteristic"`
}

type OrderProfile struct {
	ChannelID                int    `yaml:"channel_id"`
	ChannelName              string `yaml:"channel_name"`
	Note                     string `yaml:"note"`
	Action                   string `yaml:"action"`
	ProductSpecificationID   string `yaml:"product_specification_id"`
	ProductSpecificationName string `yaml:"product_specification_name"`
}

// DefaultProfile returns the contract currently in use.
func DefaultProfile() PayloadProfile {
	return PayloadProfile{
		TokenPath:               "/oauth/v2/token",
		InventoryPath:           "/ProductInventory/v1/inventory",
		PriceRequestPath:        "/Product/v1/priceRequest",
		OrderRequestPath:        "/Customer/v3/Ordering/orderRequest",
		SourceSystem:            "NaaS ExternalApi",
		PriceRequestDescription: "NaaS Price Request",
		Inventory: InventoryProfile{
			PageNumber:              1,
			PageSize:                10,
			NaaSEnabled:             true,
			Entitled:                true,
			ServiceType:             "Internet",
			BandwidthCharacteristic: "Bandwidth",
		},
		Order: OrderProfile{
			ChannelID:                99,
			ChannelName:              "NaaS ExternalApi",
			Note:                     "Change",
			Action:                   "modify",
			ProductSpecificationID:   "5001",
			ProductSpecificationName: "NaaS Internet",
		},
	}
}

// LoadProfile reads a YAML profile over the defaults. An empty path returns the defaults.
func LoadProfile(path string) (PayloadProfile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return PayloadProfile{}, Err(ErrConfig, err, "read payload profile %s", path)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return PayloadProfile{}, Err(ErrConfig, err, "parse payload profile %s", path)
	}
	if err := p.Validate(); err != nil {
		return PayloadProfile{}, Err(ErrConfig, err, "payload profile %s", path)
	}
	return p, nil
}

func (p PayloadProfile) Validate() error {
	if p.TokenPath == "" || p.InventoryPath == "" || p.PriceRequestPath == "" || p.OrderRequestPath == "" {
		return fmt.Errorf("endpoint paths are required")
	}
	if p.Inventory.PageNumber < 1 || p.Inventory.PageSize < 1 {
		return fmt.Errorf("inventory.page_number and inventory.page_size must be positive")
	}
	if p.Inventory.BandwidthCharacteristic == "" {
		return fmt.Errorf("inventory.bandwidth_characteristic is required")
	}
	if p.Order.Action == "" {
		return fmt.Errorf("order.action is required")
	}
	return nil
}
