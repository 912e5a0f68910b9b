package cli

import (
	"context"
	"os"
	"strings"

	"naasprov/internal/auth"
	"naasprov/internal/backends"
	"naasprov/internal/egress"
	"naasprov/internal/flow"
	"naasprov/internal/metrics"
	"naasprov/internal/ports"
	"naasprov/internal/pub"
	"naasprov/internal/transport"
	"naasprov/internal/types"
	"naasprov/internal/vendor"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// app is the wiring shared by every command: one store, one configuration snapshot and one vendor
// client per process.
type app struct {
	runID   string
	store   ports.StateStore
	cfg     types.Config
	profile types.PayloadProfile
	client  *transport.Client
	metrics *metrics.Metrics
	tokens  *auth.TokenManager
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	store, err := backends.StoreFromEnv(ctx, opts.EnvFile)
	if err != nil {
		return nil, setupErr("open state store", err)
	}
	cfg, err := types.LoadConfig(types.Chain(store.Get, os.LookupEnv))
	if err != nil {
		return nil, setupErr("load configuration", err)
	}
	profile, err := types.LoadProfile(cfg.PayloadProfile)
	if err != nil {
		return nil, setupErr("load payload profile", err)
	}

	a := &app{
		runID:   uuid.NewString(),
		store:   store,
		cfg:     cfg,
		profile: profile,
		metrics: metrics.NewMetrics(),
	}
	a.client = transport.NewClient(cfg.BaseURL, nil, cfg.HTTPTimeout)
	a.client.DefaultHeaders[transport.CorrelationIDHeader] = a.runID
	a.client.Observer = a.metrics.ObserveVendorCall
	a.tokens = auth.NewTokenManager(store, a.client, auth.TokenManagerConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenPath:    profile.TokenPath,
		Buffer:       cfg.TokenBuffer,
	})

	log.WithFields(log.Fields{"run_id": a.runID, "base_url": cfg.BaseURL}).Debug("configuration loaded")
	return a, nil
}

// probe returns the egress probe; a non-empty override pins the address instead of asking the network.
func (a *app) probe(override string) ports.EgressProbe {
	if strings.TrimSpace(override) != "" {
		return egress.Static(override)
	}
	return egress.NewHTTPProbe(a.cfg.EgressProbeURL, nil, a.cfg.HTTPTimeout)
}

func (a *app) inventory() (*vendor.InventoryResolver, error) {
	r, err := vendor.NewInventoryResolver(a.client, a.store, a.profile)
	if err != nil {
		return nil, setupErr("inventory", err)
	}
	return r, nil
}

func (a *app) quotes() *vendor.QuoteRequester {
	return vendor.NewQuoteRequester(a.client, a.store, a.tokens, a.cfg.TokenBuffer, a.profile)
}

func (a *app) orders() *vendor.OrderRequester {
	return vendor.NewOrderRequester(a.client, a.store, a.tokens, a.cfg.TokenBuffer, a.profile)
}

// observer publishes quote events when QUOTE_TOPIC_ARN is configured.
func (a *app) observer(ctx context.Context) (ports.QuoteObserver, error) {
	if a.cfg.QuoteTopicArn == "" {
		return nil, nil
	}
	cli, err := snsClient(ctx, a.cfg.SNSEndpoint)
	if err != nil {
		return nil, setupErr("sns client", err)
	}
	return pub.NewQuoteNotifier(pub.NewSNS(cli), a.cfg.QuoteTopicArn), nil
}

func (a *app) workflow(ctx context.Context, egressOverride string) (*flow.Workflow, error) {
	inventory, err := a.inventory()
	if err != nil {
		return nil, err
	}
	observer, err := a.observer(ctx)
	if err != nil {
		return nil, err
	}
	return flow.New(a.cfg, flow.Dependencies{
		Store:     a.store,
		Tokens:    a.tokens,
		Inventory: inventory,
		Probe:     a.probe(egressOverride),
		Quotes:    a.quotes(),
		Orders:    a.orders(),
		Observer:  observer,
		Recorder:  a.metrics,
	}), nil
}

// pushMetrics is best effort; a missing Pushgateway never changes the command result.
func (a *app) pushMetrics(ctx context.Context) {
	if err := a.metrics.Push(ctx, a.cfg.PushgatewayURL, a.cfg.ServiceID); err != nil {
		log.WithError(err).Warn("failed to push metrics")
	}
}

// state returns a persisted value, trimmed.
func (a *app) state(key string) string {
	v, _ := a.store.Get(key)
	return strings.TrimSpace(v)
}

// snsClient creates an SNS client. With an endpoint override it talks to a local emulator using static
// test credentials.
func snsClient(ctx context.Context, endpoint string) (*sns.Client, error) {
	var snsEndpoint *string
	if endpoint != "" {
		snsEndpoint = aws.String(endpoint)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, types.Err(types.ErrConfig, err, "load aws config")
	}
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
		}
	}), nil
}
