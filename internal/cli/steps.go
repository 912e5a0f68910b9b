package cli

import (
	"fmt"
	"strconv"
	"time"

	"naasprov/internal/egress"
	"naasprov/internal/types"

	"github.com/spf13/cobra"
)

type tokenReport struct {
	Refreshed bool   `json:"refreshed"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Make sure a valid access token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			before := a.tokens.Current()
			var rec types.CredentialRecord
			if force {
				rec, err = a.tokens.Refresh(ctx, true)
			} else {
				rec, err = a.tokens.GetValid(ctx, a.cfg.TokenBuffer)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "token", err)
			}
			r := tokenReport{Refreshed: force || rec.Token != before.Token}
			text := "token valid"
			if rec.ExpiresAt != nil {
				r.ExpiresAt = time.Unix(*rec.ExpiresAt, 0).UTC().Format(time.RFC3339)
				text = "token valid until " + r.ExpiresAt
			}
			return newOutput(cmd.OutOrStdout(), rootOpts).emit(r, text)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "exchange credentials even when the stored token is still valid")
	return cmd
}

type inventoryReport struct {
	Entries            int    `json:"entries"`
	BillingAccountID   string `json:"billing_account_id"`
	BillingAccountName string `json:"billing_account_name"`
	MasterSiteID       string `json:"master_site_id"`
	ServiceBandwidth   string `json:"service_bandwidth"`
}

func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Look up the service in the product inventory and store its facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			if err := a.cfg.ValidateWorkflow(); err != nil {
				return setupErr("inventory", err)
			}
			resolver, err := a.inventory()
			if err != nil {
				return err
			}
			cred, err := a.tokens.GetValid(ctx, a.cfg.TokenBuffer)
			if err != nil {
				return WrapExitError(ExitFailure, "token", err)
			}
			facts, err := resolver.Resolve(ctx, a.cfg.ServiceID, a.cfg.CustomerNumber, cred.Token)
			if err != nil {
				return WrapExitError(ExitFailure, "inventory", err)
			}
			if facts.Entries == 0 {
				return WrapExitError(ExitFailure, "inventory", types.Err(types.ErrEmptyInventory, nil, "service %s", a.cfg.ServiceID))
			}
			r := inventoryReport(facts)
			text := fmt.Sprintf("billing account %s (%s), master site %s, bandwidth %s",
				facts.BillingAccountID, facts.BillingAccountName, facts.MasterSiteID, facts.ServiceBandwidth)
			return newOutput(cmd.OutOrStdout(), rootOpts).emit(r, text)
		},
	}
}

type decideReport struct {
	EgressAddress    string `json:"egress_address"`
	ReferenceAddress string `json:"reference_address"`
	SelectedTier     string `json:"selected_tier"`
	Matched          bool   `json:"matched"`
}

func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	var override string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Probe the egress address and store the bandwidth tier to quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			d, err := egress.Decide(ctx, a.probe(override), a.cfg.ReferenceAddress, a.cfg.BandwidthFull, a.cfg.BandwidthHeartbeat)
			if err != nil {
				return WrapExitError(ExitFailure, "decide", err)
			}
			if err := a.store.Set(ctx, map[string]string{
				types.KeyQuoteBandwidth: d.SelectedTier,
				types.KeyEgressIP:       d.EgressAddress,
			}); err != nil {
				return WrapExitError(ExitFailure, "decide", err)
			}
			text := fmt.Sprintf("egress %s, reference %s, match %s, %s=%s",
				d.EgressAddress, d.ReferenceAddress, strconv.FormatBool(d.Matched), types.KeyQuoteBandwidth, d.SelectedTier)
			return newOutput(cmd.OutOrStdout(), rootOpts).emit(decideReport(d), text)
		},
	}
	cmd.Flags().StringVar(&override, "egress", "", "use this egress address instead of probing")
	return cmd
}

func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Request a price quote for the stored QUOTE_BANDWIDTH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			rec, err := a.quotes().RequestQuote(ctx, types.QuoteInput{
				CustomerNumber: a.cfg.CustomerNumber,
				CurrencyCode:   a.cfg.CurrencyCode,
				MasterSiteID:   a.state(types.KeyMasterSiteID),
				PartnerID:      a.cfg.PartnerID,
				ProductCode:    a.cfg.ProductCode,
				ProductName:    a.cfg.ProductName,
				Bandwidth:      a.state(types.KeyQuoteBandwidth),
			})
			if err != nil {
				return setupErr("quote", err)
			}
			return newOutput(cmd.OutOrStdout(), rootOpts).emit(map[string]string{"quote_id": rec.ID, "speed": rec.Bandwidth}, rec.ID)
		},
	}
}

func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Place a modify order referencing the stored QUOTE_ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			rec, err := a.orders().RequestOrder(ctx, types.OrderInput{
				CustomerNumber:     a.cfg.CustomerNumber,
				BillingAccountID:   a.state(types.KeyBillingAccountID),
				BillingAccountName: a.state(types.KeyBillingAccountName),
				QuoteID:            a.state(types.KeyQuoteID),
				ServiceID:          a.cfg.ServiceID,
				ExternalIDPrefix:   a.cfg.ExternalIDPrefix,
				ProductCode:        a.cfg.OrderProductCode,
				ProductName:        a.cfg.OrderProductName,
				Quantity:           a.cfg.OrderQuantity,
				Contact:            a.cfg.Contact,
			})
			if err != nil {
				return setupErr("order", err)
			}
			text := fmt.Sprintf("order %s placed (external id %s)", rec.ID, rec.ExternalID)
			return newOutput(cmd.OutOrStdout(), rootOpts).emit(map[string]string{
				"order_id":    rec.ID,
				"external_id": rec.ExternalID,
				"quote_id":    rec.QuoteID,
			}, text)
		},
	}
}
