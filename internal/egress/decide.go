package egress

import (
	"context"
	"errors"
	"strings"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	log "github.com/sirupsen/logrus"
)

// Decide picks the bandwidth tier for the current egress path: fullTier when the probed address equals
// reference, heartbeatTier otherwise. The reference is validated before the probe is consulted.
func Decide(ctx context.Context, probe ports.EgressProbe, reference, fullTier, heartbeatTier string) (types.BandwidthDecision, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return types.BandwidthDecision{}, types.Err(types.ErrConfig, nil, "%s is not set", types.KeyReferenceIP)
	}
	if probe == nil {
		return types.BandwidthDecision{}, types.Err(types.ErrConfig, nil, "no egress probe configured")
	}

	addr, err := probe.EgressAddress(ctx)
	if err != nil {
		if !isClassified(err) {
			err = types.Err(types.ErrUpstream, err, "egress probe failed")
		}
		return types.BandwidthDecision{}, err
	}
	addr = strings.TrimSpace(addr)

	d := types.BandwidthDecision{
		EgressAddress:    addr,
		ReferenceAddress: reference,
		Matched:          addr == reference,
	}
	tier, key := strings.TrimSpace(heartbeatTier), types.KeyBandwidthHeartbeat
	if d.Matched {
		tier, key = strings.TrimSpace(fullTier), types.KeyBandwidthFull
	}
	if tier == "" {
		return types.BandwidthDecision{}, types.Err(types.ErrConfig, nil, "%s is not set", key)
	}
	d.SelectedTier = tier

	log.WithFields(log.Fields{
		"egress":    d.EgressAddress,
		"reference": d.ReferenceAddress,
		"matched":   d.Matched,
		"tier":      d.SelectedTier,
	}).Info("bandwidth tier selected")
	return d, nil
}

func isClassified(err error) bool {
	for _, sentinel := range []error{types.ErrConfig, types.ErrUpstream, types.ErrAuth, types.ErrStorage} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
