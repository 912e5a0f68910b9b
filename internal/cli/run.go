package cli

import (
	"naasprov/internal/flow"

	"github.com/spf13/cobra"
)

type RunOptions struct {
	*RootOptions
	Egress string
}

type runReport struct {
	RunID      string `json:"run_id"`
	Outcome    string `json:"outcome"`
	FailedStep string `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`
	Bandwidth  string `json:"service_bandwidth,omitempty"`
	Tier       string `json:"decided_tier,omitempty"`
	Egress     string `json:"egress_address,omitempty"`
	QuoteID    string `json:"quote_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full workflow: token, inventory, decide, compare, quote and order",
		Long: `Run the provisioning workflow once.

Exits 0 when the service already runs at the decided tier ("no_change") or when a quote and an
order were placed ("quote_and_order_placed"). Exits 1 and names the failing step otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			w, err := a.workflow(ctx, opts.Egress)
			if err != nil {
				return err
			}
			res, runErr := w.Run(ctx, a.runID)
			a.pushMetrics(ctx)

			if err := newOutput(cmd.OutOrStdout(), opts.RootOptions).emit(report(res), res.Summary()); err != nil {
				return err
			}
			if runErr != nil {
				return WrapExitError(res.ExitCode(), "workflow", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Egress, "egress", "", "use this egress address instead of probing")
	return cmd
}

func report(res flow.Result) runReport {
	r := runReport{
		RunID:     res.RunID,
		Outcome:   res.Outcome.String(),
		Bandwidth: res.Facts.ServiceBandwidth,
		Tier:      res.Decision.SelectedTier,
		Egress:    res.Decision.EgressAddress,
	}
	if res.Err != nil {
		r.FailedStep = res.FailedStep.String()
		r.Error = res.Err.Error()
	}
	if res.Quote != nil {
		r.QuoteID = res.Quote.ID
	}
	if res.Order != nil {
		r.OrderID = res.Order.ID
		r.ExternalID = res.Order.ExternalID
	}
	return r
}
