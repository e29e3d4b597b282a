package nebula

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula-nodeconf/pkg/model"
)

const pkiDir = "/etc/nebula"

func loadTestdata(t *testing.T) Document {
	t.Helper()
	data, err := os.ReadFile("testdata/config.yml")
	require.NoError(t, err)
	doc, err := Parse(data)
	require.NoError(t, err)
	return doc
}

func inboundOf(t *testing.T, doc Document) []any {
	t.Helper()
	fw, ok := doc["firewall"].(map[string]any)
	require.True(t, ok)
	inbound, ok := fw["inbound"].([]any)
	require.True(t, ok)
	return inbound
}

func hostParams() model.NodeParameters {
	return model.NodeParameters{CIDR: "10.10.1.1/24", LighthouseNodeIP: "203.0.113.10"}
}

func lighthouseParams() model.NodeParameters {
	return model.NodeParameters{CIDR: "10.10.1.1/24", IsLighthouse: true}
}

func TestDerive_RoleFlag(t *testing.T) {
	for _, isLighthouse := range []bool{true, false} {
		params := hostParams()
		params.IsLighthouse = isLighthouse
		doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), params)
		lh := doc["lighthouse"].(map[string]any)
		assert.Equal(t, isLighthouse, lh["am_lighthouse"])
		// untouched keys survive
		assert.Equal(t, 60, lh["interval"])
	}
}

func TestDerive_PKIPaths(t *testing.T) {
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), lighthouseParams())
	pki := doc["pki"].(map[string]any)
	assert.Equal(t, "/etc/nebula/ca.crt", pki["ca"])
	assert.True(t, strings.HasSuffix(pki["cert"].(string), "lighthouse.crt"))
	assert.Equal(t, "/etc/nebula/lighthouse.key", pki["key"])

	doc = Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), hostParams())
	pki = doc["pki"].(map[string]any)
	assert.True(t, strings.HasSuffix(pki["ca"].(string), "ca.crt"))
	assert.True(t, strings.HasSuffix(pki["cert"].(string), "host.crt"))
	assert.Equal(t, "/etc/nebula/host.key", pki["key"])
}

func TestDerive_LocalCIDRPropagation(t *testing.T) {
	original := inboundOf(t, loadTestdata(t))
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), hostParams())
	inbound := inboundOf(t, doc)

	require.GreaterOrEqual(t, len(inbound), len(original))
	for i := range original {
		got := inbound[i].(map[string]any)
		want := original[i].(map[string]any)
		if _, scoped := want["local_cidr"]; scoped {
			assert.Equal(t, "10.10.1.1/24", got["local_cidr"])
			delete(got, "local_cidr")
			delete(want, "local_cidr")
		} else {
			assert.NotContains(t, got, "local_cidr")
		}
		assert.Equal(t, want, got)
	}
}

func TestDerive_StaticHostMap(t *testing.T) {
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), lighthouseParams())
	assert.NotContains(t, doc, "static_host_map")
	assert.Equal(t, []any{}, doc["lighthouse"].(map[string]any)["hosts"])

	params := hostParams()
	params.StaticHosts = []model.StaticHost{
		{OverlayIP: "10.10.1.5", Addr: "24.5.219.50:4242"},
		{OverlayIP: "10.10.1.1", Addr: "198.51.100.7:4242"},
		{OverlayIP: "10.10.1.1", Addr: "203.0.113.10:4242"},
	}
	doc = Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), params)
	assert.Equal(t, map[string]any{
		"10.10.1.1": []any{"203.0.113.10:4242", "198.51.100.7:4242"},
		"10.10.1.5": []any{"24.5.219.50:4242"},
	}, doc["static_host_map"])
	assert.Equal(t, []any{"10.10.1.1"}, doc["lighthouse"].(map[string]any)["hosts"])
}

func TestDerive_TunEnabled(t *testing.T) {
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), lighthouseParams())
	tun := doc["tun"].(map[string]any)
	assert.Equal(t, false, tun["disable"])
	assert.Equal(t, "nebula1", tun["dev"])
}

func TestDerive_FirewallNoPorts(t *testing.T) {
	original := len(inboundOf(t, loadTestdata(t)))
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), hostParams())
	added := inboundOf(t, doc)[original:]

	assert.Equal(t, []any{
		map[string]any{"port": 4242, "proto": "udp", "host": "any"},
		map[string]any{"port": "any", "proto": "tcp", "host": "any"},
	}, added)
}

func TestDerive_FirewallExplicitPorts(t *testing.T) {
	params := hostParams()
	params.Ports = model.SplitPorts("32348-32349, 31800,,3000")
	params.PortsSet = true
	original := len(inboundOf(t, loadTestdata(t)))
	doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), params)
	added := inboundOf(t, doc)[original:]

	require.Len(t, added, 4)
	assert.Equal(t, map[string]any{"port": 4242, "proto": "udp", "host": "any"}, added[0])
	for i, port := range []string{"32348-32349", "31800", "3000"} {
		assert.Equal(t, map[string]any{"port": port, "proto": "tcp", "host": "any"}, added[i+1])
	}
}

func TestDerive_FirewallSeparatorOnlyPorts(t *testing.T) {
	for _, raw := range []string{",", " , ,"} {
		params := hostParams()
		params.Ports = model.SplitPorts(raw)
		params.PortsSet = true
		original := len(inboundOf(t, loadTestdata(t)))
		doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), params)

		assert.Equal(t, []any{
			map[string]any{"port": 4242, "proto": "udp", "host": "any"},
		}, inboundOf(t, doc)[original:], "ports %q", raw)
	}
}

func TestDerive_MissingSections(t *testing.T) {
	doc := Deriver{PKIDir: pkiDir}.Derive(Document{"listen": map[string]any{"port": 4242}}, hostParams())
	assert.Len(t, inboundOf(t, doc), 2)
	assert.Equal(t, false, doc["lighthouse"].(map[string]any)["am_lighthouse"])
	assert.Equal(t, false, doc["tun"].(map[string]any)["disable"])
	assert.Equal(t, map[string]any{"port": 4242}, doc["listen"])
}

func TestDerive_RoundTrip(t *testing.T) {
	for _, params := range []model.NodeParameters{hostParams(), lighthouseParams()} {
		params.Ports = []string{"32348-32349", "31800"}
		params.PortsSet = true
		doc := Deriver{PKIDir: pkiDir}.Derive(loadTestdata(t), params)

		data, err := Marshal(doc)
		require.NoError(t, err)
		back, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, doc, back)
	}
}

func TestInboundRules(t *testing.T) {
	rules := InboundRules(nil, false)
	assert.Equal(t, []model.FirewallRule{
		{Port: 4242, Proto: "udp", Host: "any"},
		{Port: "any", Proto: "tcp", Host: "any"},
	}, rules)

	rules = InboundRules([]string{"80", "", "443"}, true)
	assert.Len(t, rules, 3)
	assert.Equal(t, "443", rules[2].Port)

	assert.Equal(t, []model.FirewallRule{{Port: 4242, Proto: "udp", Host: "any"}}, InboundRules([]string{}, true))
}
