package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"naasprov/internal/egress"
	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StepError reports the step a run stopped at. It unwraps to the underlying error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("failed at step %d (%s): %v", e.Step, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Result describes a finished run. Facts, Decision, Quote and Order are filled in as far as the run got.
type Result struct {
	RunID      string
	Outcome    Outcome
	FailedStep Step
	Err        error

	Facts    types.InventoryFacts
	Decision types.BandwidthDecision
	Quote    *types.QuoteRecord
	Order    *types.OrderRecord
}

// Summary renders the one line status reported to the operator.
func (r Result) Summary() string {
	if r.Outcome == Failed && r.Err != nil {
		return r.Err.Error()
	}
	return r.Outcome.String()
}

func (r Result) ExitCode() int {
	if r.Outcome == Failed {
		return 1
	}
	return 0
}

// Dependencies are the collaborators of a run. Observer and Recorder are optional.
type Dependencies struct {
	Store     ports.StateStore
	Tokens    ports.TokenSource
	Inventory ports.InventoryResolver
	Probe     ports.EgressProbe
	Quotes    ports.QuoteRequester
	Orders    ports.OrderRequester
	Observer  ports.QuoteObserver
	Recorder  ports.RunRecorder
}

// Workflow sequences one provisioning pass. It is not safe for concurrent use; every run is expected to
// be its own process.
type Workflow struct {
	cfg  types.Config
	deps Dependencies
}

func New(cfg types.Config, deps Dependencies) *Workflow {
	return &Workflow{cfg: cfg, deps: deps}
}

// Run executes the workflow. A run id is generated when runID is empty. The returned error is the
// *StepError also carried on the Result.
func (w *Workflow) Run(ctx context.Context, runID string) (Result, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	res := Result{RunID: runID}
	logger := log.WithFields(log.Fields{"run_id": runID, "service_id": w.cfg.ServiceID})
	logger.Info("workflow started")

	fail := func(step Step, err error) (Result, error) {
		stepErr := &StepError{Step: step, Err: err}
		res.Outcome = Failed
		res.FailedStep = step
		res.Err = stepErr
		logger.WithError(err).WithField("step", step.String()).Error("workflow failed")
		w.record(res)
		return res, stepErr
	}

	// Step 0
	if err := w.preflight(); err != nil {
		return fail(StepPreflight, err)
	}

	// Step 1
	cred, err := w.deps.Tokens.GetValid(ctx, w.cfg.TokenBuffer)
	if err != nil {
		return fail(StepToken, err)
	}

	// Step 2
	res.Facts, err = w.deps.Inventory.Resolve(ctx, w.cfg.ServiceID, w.cfg.CustomerNumber, cred.Token)
	if err != nil {
		return fail(StepInventory, err)
	}
	if res.Facts.Entries == 0 {
		return fail(StepInventory, types.Err(types.ErrEmptyInventory, nil, "service %s", w.cfg.ServiceID))
	}

	// Step 3
	res.Decision, err = egress.Decide(ctx, w.deps.Probe, w.cfg.ReferenceAddress, w.cfg.BandwidthFull, w.cfg.BandwidthHeartbeat)
	if err != nil {
		return fail(StepDecide, err)
	}
	if err := w.deps.Store.Set(ctx, map[string]string{
		types.KeyQuoteBandwidth: res.Decision.SelectedTier,
		types.KeyEgressIP:       res.Decision.EgressAddress,
	}); err != nil {
		return fail(StepDecide, err)
	}

	// Step 4
	if SameTier(res.Facts.ServiceBandwidth, res.Decision.SelectedTier) {
		res.Outcome = NoChange
		logger.WithField("bandwidth", res.Decision.SelectedTier).Info("service already at decided tier")
		w.record(res)
		return res, nil
	}
	logger.WithFields(log.Fields{
		"from": res.Facts.ServiceBandwidth,
		"to":   res.Decision.SelectedTier,
	}).Info("bandwidth change required")

	// Step 5
	quote, err := w.deps.Quotes.RequestQuote(ctx, types.QuoteInput{
		CustomerNumber: w.cfg.CustomerNumber,
		CurrencyCode:   w.cfg.CurrencyCode,
		MasterSiteID:   res.Facts.MasterSiteID,
		PartnerID:      w.cfg.PartnerID,
		ProductCode:    w.cfg.ProductCode,
		ProductName:    w.cfg.ProductName,
		Bandwidth:      res.Decision.SelectedTier,
	})
	if err != nil {
		return fail(StepQuote, err)
	}
	res.Quote = &quote
	w.notify(ctx, logger, res)

	// Step 6
	order, err := w.deps.Orders.RequestOrder(ctx, types.OrderInput{
		CustomerNumber:     w.cfg.CustomerNumber,
		BillingAccountID:   res.Facts.BillingAccountID,
		BillingAccountName: res.Facts.BillingAccountName,
		QuoteID:            quote.ID,
		ServiceID:          w.cfg.ServiceID,
		ExternalIDPrefix:   w.cfg.ExternalIDPrefix,
		ProductCode:        w.cfg.OrderProductCode,
		ProductName:        w.cfg.OrderProductName,
		Quantity:           w.cfg.OrderQuantity,
		Contact:            w.cfg.Contact,
	})
	if err != nil {
		return fail(StepOrder, err)
	}
	res.Order = &order
	res.Outcome = QuoteAndOrderPlaced
	logger.WithFields(log.Fields{"quote_id": quote.ID, "order_id": order.ID}).Info("quote and order placed")
	w.record(res)
	return res, nil
}

func (w *Workflow) preflight() error {
	if err := w.cfg.ValidateRun(); err != nil {
		return err
	}
	d := w.deps
	if d.Store == nil || d.Tokens == nil || d.Inventory == nil || d.Probe == nil || d.Quotes == nil || d.Orders == nil {
		return types.Err(types.ErrConfig, nil, "workflow dependencies are incomplete")
	}
	return nil
}

// notify hands the quote to the observer. Observer failures are logged and never fail the run.
func (w *Workflow) notify(ctx context.Context, logger *log.Entry, res Result) {
	if w.deps.Observer == nil {
		return
	}
	event := types.QuoteEvent{
		RunID:          res.RunID,
		QuoteID:        res.Quote.ID,
		ServiceID:      w.cfg.ServiceID,
		CustomerNumber: w.cfg.CustomerNumber,
		FromBandwidth:  res.Facts.ServiceBandwidth,
		ToBandwidth:    res.Quote.Bandwidth,
		EgressAddress:  res.Decision.EgressAddress,
		Matched:        res.Decision.Matched,
		At:             EpochTime(),
	}
	if err := w.deps.Observer.OnQuote(ctx, event); err != nil {
		logger.WithError(err).Warn("quote observer failed")
	}
}

func (w *Workflow) record(res Result) {
	if w.deps.Recorder == nil {
		return
	}
	if res.Outcome == Failed {
		w.deps.Recorder.StepFailed(res.FailedStep.String())
	}
	w.deps.Recorder.RunFinished(res.Outcome.String(), time.Unix(EpochTime(), 0))
}

// SameTier compares bandwidth tiers ignoring surrounding whitespace and case. Inventory reports tiers
// lower-cased while configured tiers keep the operator's spelling.
func SameTier(current, decided string) bool {
	return strings.EqualFold(strings.TrimSpace(current), strings.TrimSpace(decided))
}
