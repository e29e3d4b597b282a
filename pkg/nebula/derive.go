package nebula

import (
	"net"
	"path/filepath"
	"strconv"

	"nebula-nodeconf/pkg/model"
)

// Deriver fills in the node specific fields of a Nebula config.
// PKIDir is the directory holding ca.crt and the <role>.crt/.key pairs.
type Deriver struct {
	PKIDir string
}

// Derive mutates doc in place for the given node and returns it. params are
// expected to be validated already; Derive itself performs no I/O and never fails.
func (d Deriver) Derive(doc Document, params model.NodeParameters) Document {
	role := params.Role()
	doc["pki"] = map[string]any{
		"ca":   filepath.Join(d.PKIDir, "ca.crt"),
		"cert": filepath.Join(d.PKIDir, role+".crt"),
		"key":  filepath.Join(d.PKIDir, role+".key"),
	}

	firewall := section(doc, "firewall")
	inbound, _ := firewall["inbound"].([]any)
	for _, entry := range inbound {
		rule, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if _, scoped := rule["local_cidr"]; scoped {
			rule["local_cidr"] = params.CIDR
		}
	}

	lighthouse := section(doc, "lighthouse")
	lighthouse["am_lighthouse"] = params.IsLighthouse

	delete(doc, "static_host_map")
	if params.IsLighthouse {
		lighthouse["hosts"] = []any{}
	} else {
		overlayIP := params.OverlayIP()
		doc["static_host_map"] = StaticHostMap(overlayIP, params.LighthouseNodeIP, params.StaticHosts)
		lighthouse["hosts"] = []any{overlayIP}
	}

	section(doc, "tun")["disable"] = false

	for _, r := range InboundRules(params.Ports, params.PortsSet) {
		inbound = append(inbound, r.Map())
	}
	if inbound == nil {
		inbound = []any{}
	}
	firewall["inbound"] = inbound
	return doc
}

// StaticHostMap builds the lighthouse mapping first, then the extra entries
// in order. Extras for an already mapped overlay address extend its list.
func StaticHostMap(lighthouseIP, lighthouseNodeIP string, extra []model.StaticHost) map[string]any {
	out := map[string]any{
		lighthouseIP: []any{net.JoinHostPort(lighthouseNodeIP, strconv.Itoa(model.DefaultPort))},
	}
	for _, h := range extra {
		addrs, _ := out[h.OverlayIP].([]any)
		if containsString(addrs, h.Addr) {
			continue
		}
		out[h.OverlayIP] = append(addrs, h.Addr)
	}
	return out
}

// InboundRules returns the rules appended after the template's own: the
// overlay UDP port, then all TCP when no port list was given, otherwise one
// TCP rule per non-empty entry. A given list with no entries opens no TCP.
func InboundRules(ports []string, explicit bool) []model.FirewallRule {
	rules := []model.FirewallRule{{Port: model.DefaultPort, Proto: model.ProtoUDP, Host: model.HostAny}}
	if !explicit {
		return append(rules, model.FirewallRule{Port: model.PortAny, Proto: model.ProtoTCP, Host: model.HostAny})
	}
	for _, p := range ports {
		if p == "" {
			continue
		}
		rules = append(rules, model.FirewallRule{Port: p, Proto: model.ProtoTCP, Host: model.HostAny})
	}
	return rules
}

// section returns doc[key] as a mapping, creating it when absent.
func section(doc map[string]any, key string) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	doc[key] = m
	return m
}

func containsString(xs []any, s string) bool {
	for _, x := range xs {
		if v, ok := x.(string); ok && v == s {
			return true
		}
	}
	return false
}
