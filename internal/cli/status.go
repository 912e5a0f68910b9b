package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"naasprov/internal/types"
	"naasprov/internal/vendor"

	"github.com/spf13/cobra"
)

// statusKeys are the persisted workflow keys, in workflow order.
var statusKeys = []string{
	types.KeyAccessToken,
	types.KeyAccessTokenExpiry,
	types.KeyBillingAccountID,
	types.KeyBillingAccountName,
	types.KeyMasterSiteID,
	types.KeyServiceBandwidth,
	types.KeyEgressIP,
	types.KeyQuoteBandwidth,
	types.KeyQuoteID,
	types.KeyExternalID,
	types.KeyOrderID,
	types.KeyOrderConfirmation,
}

type statusEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var confirmation bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted workflow state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			out := newOutput(cmd.OutOrStdout(), rootOpts)

			if confirmation {
				raw, err := vendor.DecodeArchive(a.state(types.KeyOrderConfirmation))
				if err != nil {
					return WrapExitError(ExitFailure, "order confirmation", err)
				}
				if len(raw) == 0 {
					return WrapExitError(ExitFailure, "order confirmation", types.Err(types.ErrNotFound, nil, "no order confirmation stored"))
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}

			entries := make([]statusEntry, 0, len(statusKeys))
			var text strings.Builder
			for _, k := range statusKeys {
				v, ok := a.store.Get(k)
				if !ok {
					continue
				}
				v = displayValue(k, v, a.tokens.IsExpired(a.cfg.TokenBuffer))
				entries = append(entries, statusEntry{Key: k, Value: v})
				fmt.Fprintf(&text, "%-22s %s\n", k, v)
			}
			return out.emit(entries, strings.TrimRight(text.String(), "\n"))
		},
	}
	cmd.Flags().BoolVar(&confirmation, "confirmation", false, "print the archived order confirmation instead")
	return cmd
}

// displayValue masks the token and renders timestamps and archives readably.
func displayValue(key, value string, expired bool) string {
	switch key {
	case types.KeyAccessToken:
		if value == "" {
			return ""
		}
		if expired {
			return "<redacted, expired>"
		}
		return "<redacted>"
	case types.KeyAccessTokenExpiry:
		at, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return value
		}
		return time.Unix(at, 0).UTC().Format(time.RFC3339)
	case types.KeyOrderConfirmation:
		if value == "" {
			return ""
		}
		return fmt.Sprintf("<%d bytes archived, use --confirmation>", len(value))
	}
	return value
}
