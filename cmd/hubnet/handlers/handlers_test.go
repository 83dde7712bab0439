package handlers

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/platform/hcloud"
)

var workspaceUnits = map[string]string{
	"hub": `prefix: hub
addressSpace: [10.0.0.0/16]
subnets:
  - {name: dmz, prefix: 10.0.0.32/27}
  - {name: GatewaySubnet, prefix: 10.0.255.224/27}
  - {name: mgmt, prefix: 10.0.0.64/27}
onPrem: on-prem
`,
	"on-prem": `prefix: onprem
addressSpace: [192.168.0.0/16]
subnets:
  - {name: GatewaySubnet, prefix: 192.168.255.224/27}
  - {name: mgmt, prefix: 192.168.1.128/25}
`,
	"hub-nva": `prefix: hub-nva
privateIP: 10.0.0.36
hub: hub
spokes: [spoke1, spoke2]
onPrem: on-prem
`,
	"spoke1": `addressSpace: [10.1.0.0/16]
subnets:
  - {name: mgmt, prefix: 10.1.0.64/27}
  - {name: workload, prefix: 10.1.1.0/24}
hub: hub
`,
	"spoke2": `addressSpace: [10.2.0.0/16]
subnets:
  - {name: mgmt, prefix: 10.2.0.64/27}
  - {name: workload, prefix: 10.2.1.0/24}
hub: hub
`,
}

const topologyYAML = `hub:
  id: hub
  addressSpace: [10.0.0.0/16]
  subnets:
    - {name: dmz, prefix: 10.0.0.32/27}
spokes:
  - {id: spoke1, addressSpace: [10.1.0.0/16]}
  - {id: spoke2, addressSpace: [10.2.0.0/16]}
nva:
  privateIP: 10.0.0.36
`

// saveAndRestoreFactories restores every factory variable after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origGetwd := getwd
	origFindConfigFile := findConfigFile
	origLoadConfigFile := loadConfigFile
	origLoadCredentials := loadCredentials
	origNewCatalog := newCatalog
	origNewNetworkManager := newNetworkManager
	origGenerateSharedKey := generateSharedKey
	origGenerateKeyPair := generateKeyPair
	origWriteFile := writeFile
	origStdout := stdout
	origLogOutput := logOutput

	t.Cleanup(func() {
		getwd = origGetwd
		findConfigFile = origFindConfigFile
		loadConfigFile = origLoadConfigFile
		loadCredentials = origLoadCredentials
		newCatalog = origNewCatalog
		newNetworkManager = origNewNetworkManager
		generateSharedKey = origGenerateSharedKey
		generateKeyPair = origGenerateKeyPair
		writeFile = origWriteFile
		stdout = origStdout
		logOutput = origLogOutput
	})
}

// captureOutput redirects command output into a buffer and discards logs.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	saveAndRestoreFactories(t)
	var buf bytes.Buffer
	stdout = &buf
	logOutput = io.Discard
	return &buf
}

// writeWorkspace creates a hubnet.yaml and a units directory and returns the
// config path.
func writeWorkspace(t *testing.T, provider config.Provider) string {
	t.Helper()
	dir := t.TempDir()
	for id, entry := range workspaceUnits {
		unitDir := filepath.Join(dir, "units", id)
		require.NoError(t, os.MkdirAll(unitDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(unitDir, "unit.yaml"), []byte(entry), 0o600))
	}

	cfg := config.Default("lab")
	cfg.Backend.Provider = provider
	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfg, path))

	t.Setenv(config.EnvSharedKey, "4-v3ry-53cr37-1p53c-5h4r3d-k3y")
	t.Setenv(config.EnvAdminPassword, "Passw0rd!")
	return path
}

func TestLoadConfig_NoFileFound(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := t.TempDir()
	getwd = func() (string, error) { return dir, nil }
	findConfigFile = func(string) (string, error) {
		return "", os.ErrNotExist
	}

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
}

func TestLoadConfig_SearchesFromWorkingDirectory(t *testing.T) {
	saveAndRestoreFactories(t)
	path := writeWorkspace(t, config.ProviderPlan)
	getwd = func() (string, error) { return filepath.Dir(path), nil }

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "units"), cfg.UnitsDir)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	saveAndRestoreFactories(t)
	path := filepath.Join(t.TempDir(), "hubnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Not_Valid\n"), 0o600))

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestNewSession_LogLevelOverride(t *testing.T) {
	captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)

	_, err := newSession(Options{ConfigPath: path, LogLevel: "trace"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")

	s, err := newSession(Options{ConfigPath: path, LogLevel: "debug", NoColor: true})
	require.NoError(t, err)
	assert.True(t, s.log.V(1).Enabled())
}

func TestUnits(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)

	require.NoError(t, Units(context.Background(), Options{ConfigPath: path}))

	text := out.String()
	assert.Contains(t, text, "hubnet units: lab")
	for id := range workspaceUnits {
		assert.Contains(t, text, id)
	}
	assert.Contains(t, text, "units.HubNVA")
}

func TestUnits_EmptyDirectory(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)
	require.NoError(t, os.RemoveAll(filepath.Join(filepath.Dir(path), "units")))

	require.NoError(t, Units(context.Background(), Options{ConfigPath: path}))
	assert.Contains(t, out.String(), "no units found")
}

func TestPlan(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)

	require.NoError(t, Plan(context.Background(), Options{ConfigPath: path}, true))

	text := out.String()
	assert.Contains(t, text, "hubnet plan: lab")
	assert.Contains(t, text, "RouteTable")
	assert.Contains(t, text, "hub-nva")
	assert.Contains(t, text, "hubnet_pipeline_phase_duration_seconds")
	assert.Less(t, strings.Index(text, "Stacks"), strings.Index(text, "Metrics"))
}

func TestPlan_MissingSharedKey(t *testing.T) {
	captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)
	t.Setenv(config.EnvSharedKey, "")

	err := Plan(context.Background(), Options{ConfigPath: path}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link phase failed")
}

func TestApply_PlanProvider(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)
	newNetworkManager = func(string, logr.Logger) hcloud.NetworkManager {
		t.Fatal("plan provider must not create an hcloud client")
		return nil
	}

	require.NoError(t, Apply(context.Background(), Options{ConfigPath: path}))
	assert.Contains(t, out.String(), "nothing provisioned")
}

func TestApply_HCloudProvider(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderHCloud)
	t.Setenv(config.EnvHCloudToken, "test-token")

	fake := newFakeNetworks()
	var gotToken string
	newNetworkManager = func(token string, _ logr.Logger) hcloud.NetworkManager {
		gotToken = token
		return fake
	}

	require.NoError(t, Apply(context.Background(), Options{ConfigPath: path}))

	assert.Equal(t, "test-token", gotToken)
	assert.Len(t, fake.networks, 4)
	assert.Len(t, fake.subnets, 9)
	// Only the hub table can reach the appliance.
	assert.ElementsMatch(t, []string{
		"10.1.0.0/16 via 10.0.0.36",
		"10.2.0.0/16 via 10.0.0.36",
	}, fake.routes)
	assert.Contains(t, out.String(), "unreachable routes")
}

func TestApply_HCloudWithoutToken(t *testing.T) {
	captureOutput(t)
	path := writeWorkspace(t, config.ProviderHCloud)
	t.Setenv(config.EnvHCloudToken, "")
	newNetworkManager = func(string, logr.Logger) hcloud.NetworkManager { return newFakeNetworks() }

	err := Apply(context.Background(), Options{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvHCloudToken)
}

func TestDestroy_HCloudProvider(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderHCloud)
	t.Setenv(config.EnvHCloudToken, "test-token")

	fake := newFakeNetworks()
	newNetworkManager = func(string, logr.Logger) hcloud.NetworkManager { return fake }

	require.NoError(t, Destroy(context.Background(), Options{ConfigPath: path}))

	assert.Len(t, fake.deleted, 4)
	assert.Empty(t, fake.subnets, "destroy must not create anything")
	assert.Contains(t, out.String(), "hubnet destroy: lab")
}

func TestDestroy_PlanProvider(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)

	require.NoError(t, Destroy(context.Background(), Options{ConfigPath: path}))
	assert.Contains(t, out.String(), "provider plan")
}

func TestRoutes_FromPlan(t *testing.T) {
	out := captureOutput(t)
	path := writeWorkspace(t, config.ProviderPlan)

	require.NoError(t, Routes(context.Background(), Options{ConfigPath: path}, ""))

	text := out.String()
	assert.Contains(t, text, "route table hub")
	assert.Contains(t, text, "route table spoke1")
	assert.Contains(t, text, "route table spoke2")
	assert.Contains(t, text, "0.0.0.0/0")
	assert.Contains(t, text, "ViaAppliance")
}

func TestRoutes_FromTopologyFile(t *testing.T) {
	out := captureOutput(t)
	topoPath := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(topoPath, []byte(topologyYAML), 0o600))
	loadConfigFile = func(string) (*config.Config, error) {
		t.Fatal("topology file must not load the config")
		return nil, nil
	}

	require.NoError(t, Routes(context.Background(), Options{}, topoPath))

	text := out.String()
	assert.Contains(t, text, "hubnet routes: "+topoPath)
	assert.Equal(t, 3, strings.Count(text, "route table "))
}

func TestRoutes_InvalidTopologyFile(t *testing.T) {
	captureOutput(t)
	topoPath := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(topoPath, []byte("hub: {id: hub}\nextra: true\n"), 0o600))

	err := Routes(context.Background(), Options{}, topoPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse topology file")
}

func TestLookup(t *testing.T) {
	topoPath := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(topoPath, []byte(topologyYAML), 0o600))

	tests := []struct {
		name    string
		table   string
		addr    string
		want    []string
		wantErr string
	}{
		{name: "spoke to spoke via appliance", table: "spoke1", addr: "10.2.1.4", want: []string{"spoke2", "10.2.0.0/16", "10.0.0.36"}},
		{name: "internet from spoke", table: "spoke2", addr: "8.8.8.8", want: []string{"default", "0.0.0.0/0", "Local"}},
		{name: "internet from hub has no route", table: "hub", addr: "8.8.8.8", want: []string{"no route"}},
		{name: "every table", addr: "10.1.0.10", want: []string{"hub", "spoke2", "spoke1"}},
		{name: "unknown table", table: "spoke9", addr: "10.1.0.10", wantErr: "unknown route table"},
		{name: "invalid address", addr: "10.1.0", wantErr: "invalid address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			err := Lookup(context.Background(), Options{}, topoPath, tt.table, tt.addr)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

// fakeNetworks records network calls in memory.
type fakeNetworks struct {
	networks map[string]*hcloudgo.Network
	subnets  []string
	routes   []string
	deleted  []string
}

var _ hcloud.NetworkManager = (*fakeNetworks)(nil)

func newFakeNetworks() *fakeNetworks {
	return &fakeNetworks{networks: make(map[string]*hcloudgo.Network)}
}

func (f *fakeNetworks) EnsureNetwork(_ context.Context, name, ipRange string, labels map[string]string) (*hcloudgo.Network, error) {
	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, err
	}
	n := &hcloudgo.Network{ID: int64(len(f.networks) + 1), Name: name, IPRange: ipNet, Labels: labels}
	f.networks[name] = n
	return n, nil
}

func (f *fakeNetworks) EnsureSubnet(_ context.Context, _ *hcloudgo.Network, ipRange, _ string) error {
	f.subnets = append(f.subnets, ipRange)
	return nil
}

func (f *fakeNetworks) EnsureRoute(_ context.Context, _ *hcloudgo.Network, destination, gateway string) error {
	f.routes = append(f.routes, destination+" via "+gateway)
	return nil
}

func (f *fakeNetworks) DeleteNetwork(_ context.Context, name string) error {
	delete(f.networks, name)
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeNetworks) GetNetwork(_ context.Context, name string) (*hcloudgo.Network, error) {
	return f.networks[name], nil
}
