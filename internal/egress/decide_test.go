package egress

import (
	"context"
	"errors"
	"sync/atomic"

	"naasprov/internal/types"
)

type fakeProbe struct {
	addr  string
	err   error
	calls atomic.Int32
}

func (f *fakeProbe) EgressAddress(context.Context) (string, error) {
	f.calls.Add(1)
	return f.addr, f.err
}

func (s *UnitTestSuite) TestDecideMatrix() {
	cases := []struct {
		name      string
		egress    string
		reference string
		matched   bool
		tier      string
	}{
		{"equal", "203.0.113.7", "203.0.113.7", true, "1 Gbps"},
		{"egress whitespace", " 203.0.113.7\n", "203.0.113.7", true, "1 Gbps"},
		{"reference whitespace", "203.0.113.7", "\t203.0.113.7 ", true, "1 Gbps"},
		{"different", "198.51.100.1", "203.0.113.7", false, "10 Mbps"},
		{"prefix only", "203.0.113.70", "203.0.113.7", false, "10 Mbps"},
	}
	for _, c := range cases {
		probe := &fakeProbe{addr: c.egress}
		d, err := Decide(context.Background(), probe, c.reference, "1 Gbps", "10 Mbps")
		s.Require().NoError(err, c.name)
		s.Equal(c.matched, d.Matched, c.name)
		s.Equal(c.tier, d.SelectedTier, c.name)
		s.Equal("203.0.113.7", d.ReferenceAddress, c.name)
		s.EqualValues(1, probe.calls.Load(), c.name)
	}
}

func (s *UnitTestSuite) TestDecideMissingReferenceSkipsProbe() {
	probe := &fakeProbe{addr: "203.0.113.7"}
	_, err := Decide(context.Background(), probe, "  ", "1 Gbps", "10 Mbps")
	s.ErrorIs(err, types.ErrConfig)
	s.ErrorContains(err, types.KeyReferenceIP)
	s.EqualValues(0, probe.calls.Load())
}

func (s *UnitTestSuite) TestDecideMissingSelectedTier() {
	_, err := Decide(context.Background(), &fakeProbe{addr: "a"}, "a", "", "10 Mbps")
	s.ErrorIs(err, types.ErrConfig)
	s.ErrorContains(err, types.KeyBandwidthFull)

	_, err = Decide(context.Background(), &fakeProbe{addr: "b"}, "a", "1 Gbps", " ")
	s.ErrorIs(err, types.ErrConfig)
	s.ErrorContains(err, types.KeyBandwidthHeartbeat)

	// Only the selected tier has to be present.
	d, err := Decide(context.Background(), &fakeProbe{addr: "a"}, "a", "1 Gbps", "")
	s.Require().NoError(err)
	s.Equal("1 Gbps", d.SelectedTier)
}

func (s *UnitTestSuite) TestDecideProbeFailureIsUpstream() {
	probe := &fakeProbe{err: errors.New("dial tcp: no route to host")}
	_, err := Decide(context.Background(), probe, "a", "1 Gbps", "10 Mbps")
	s.ErrorIs(err, types.ErrUpstream)
	s.ErrorContains(err, "no route to host")
	s.EqualValues(1, probe.calls.Load())
}

func (s *UnitTestSuite) TestDecideKeepsClassifiedProbeErrors() {
	_, err := Decide(context.Background(), Static(""), "a", "1 Gbps", "10 Mbps")
	s.ErrorIs(err, types.ErrConfig)
	s.NotErrorIs(err, types.ErrUpstream)
}
