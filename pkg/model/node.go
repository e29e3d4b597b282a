package model

import "strings"

const (
	// DefaultPort is the overlay's own UDP port, used for lighthouse
	// static mappings and the always-present inbound rule.
	DefaultPort = 4242

	RoleLighthouse = "lighthouse"
	RoleHost       = "host"
)

// NodeParameters is the validated input for one generation run.
type NodeParameters struct {
	CIDR             string       `json:"cidr"`
	Ports            []string     `json:"ports,omitempty"`
	PortsSet         bool         `json:"portsSet"` // false opens all TCP; true opens only Ports
	IsLighthouse     bool         `json:"isLighthouse"`
	LighthouseNodeIP string       `json:"lighthouseNodeIp,omitempty"`
	StaticHosts      []StaticHost `json:"staticHosts,omitempty"` // extra fixed static_host_map entries
}

// Role returns the node type used for PKI file names.
func (p NodeParameters) Role() string {
	if p.IsLighthouse {
		return RoleLighthouse
	}
	return RoleHost
}

// OverlayIP is the CIDR with its prefix length stripped.
func (p NodeParameters) OverlayIP() string {
	return NetworkAddress(p.CIDR)
}

// StaticHost maps an overlay address to one reachable "host:port".
type StaticHost struct {
	OverlayIP string `json:"overlayIp"`
	Addr      string `json:"addr"`
}

// NetworkAddress returns the part of cidr before "/".
func NetworkAddress(cidr string) string {
	if i := strings.Index(cidr, "/"); i >= 0 {
		return cidr[:i]
	}
	return cidr
}
