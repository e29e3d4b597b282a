package model

const (
	PortAny  = "any"
	HostAny  = "any"
	ProtoUDP = "udp"
	ProtoTCP = "tcp"
)

// FirewallRule is one entry of firewall.inbound.
// Port is an int for fixed ports and a string for "any" or user supplied
// tokens, which may be ranges such as "32348-32349".
type FirewallRule struct {
	Port  any    `json:"port" yaml:"port"`
	Proto string `json:"proto" yaml:"proto"`
	Host  string `json:"host" yaml:"host"`
}

// Map renders the rule as a generic document node.
func (r FirewallRule) Map() map[string]any {
	return map[string]any{
		"port":  r.Port,
		"proto": r.Proto,
		"host":  r.Host,
	}
}
