package model

import (
	"net"
	"net/netip"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	nerrors "nebula-nodeconf/pkg/errors"
)

const (
	RemoteCLIPort = "31800"
	GrafanaPort   = "3000"
)

// SplitPorts splits a comma separated port list, trimming each entry and
// dropping empty ones. Entries are not validated.
func SplitPorts(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WithExtraPorts appends extras that are not already listed. ports is not modified.
func WithExtraPorts(ports []string, extras ...string) []string {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		seen[p] = true
	}
	out := append([]string(nil), ports...)
	for _, e := range extras {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// ParseStaticHost parses "OVERLAY_IP=HOST[:PORT]". The port defaults to DefaultPort.
func ParseStaticHost(s string) (StaticHost, error) {
	overlay, addr, ok := strings.Cut(strings.TrimSpace(s), "=")
	overlay, addr = strings.TrimSpace(overlay), strings.TrimSpace(addr)
	if !ok || overlay == "" || addr == "" {
		return StaticHost{}, nerrors.Errorf(nerrors.KindValidation, "static host %q: want OVERLAY_IP=HOST[:PORT]", s)
	}
	if _, err := netip.ParseAddr(overlay); err != nil {
		return StaticHost{}, nerrors.Wrapf(err, nerrors.KindValidation, "static host %q: overlay address", s)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(DefaultPort))
	}
	return StaticHost{OverlayIP: overlay, Addr: addr}, nil
}

// ParseStaticHosts parses every entry and reports all malformed ones together.
func ParseStaticHosts(entries []string) ([]StaticHost, error) {
	var (
		out  []StaticHost
		errs error
	)
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		h, err := ParseStaticHost(e)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, h)
	}
	return out, errs
}

// Validate checks everything derivation relies on, before any document is touched.
func (p NodeParameters) Validate() error {
	var errs error
	if _, err := netip.ParsePrefix(p.CIDR); err != nil {
		errs = multierr.Append(errs, nerrors.Wrapf(err, nerrors.KindValidation, "invalid cidr %q", p.CIDR))
	}
	if !p.IsLighthouse {
		if p.LighthouseNodeIP == "" {
			errs = multierr.Append(errs, nerrors.New(nerrors.KindValidation, "lighthouse node ip is required for a non-lighthouse node"))
		} else if _, err := netip.ParseAddr(p.LighthouseNodeIP); err != nil {
			errs = multierr.Append(errs, nerrors.Wrapf(err, nerrors.KindValidation, "invalid lighthouse node ip %q", p.LighthouseNodeIP))
		}
	}
	for _, h := range p.StaticHosts {
		if _, err := netip.ParseAddr(h.OverlayIP); err != nil {
			errs = multierr.Append(errs, nerrors.Wrapf(err, nerrors.KindValidation, "static host overlay address %q", h.OverlayIP))
		}
	}
	return errs
}
