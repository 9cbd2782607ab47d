package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `apiVersion: zookeeper.imamik.io/v1alpha1
kind: ZookeeperCluster
metadata:
  name: zk
  namespace: data
spec:
  version: 3.9.2
  servers:
    roleGroups:
      primary:
        replicas: 2
        config:
          tickTime: "3000"
      secondary:
        replicas: 1
`

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "zookeeper-operator", cmd.Use)
	for _, name := range []string{"metrics-bind-address", "health-probe-bind-address", "leader-elect", "leader-election-id", "config", "zap-devel"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"render", "version"}, names)
}

func TestVersion(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
	}()
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "zookeeper-operator 1.2.3")
	assert.Contains(t, out.String(), "commit: abc123")
}

func TestRenderEnsemble(t *testing.T) {
	t.Run("all members", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, renderEnsemble(&out, []byte(manifest), &renderOptions{clusterDomain: "cluster.local"}))

		got := out.String()
		assert.Contains(t, got, "# server 1: ConfigMap zk-server-primary-0")
		assert.Contains(t, got, "# server 2: ConfigMap zk-server-primary-1")
		assert.Contains(t, got, "# server 3: ConfigMap zk-server-secondary-0")
		assert.Contains(t, got, "server.3=zk-server-secondary-0.zk-server-secondary.data.svc.cluster.local:2888:3888;2181\n")
		assert.Contains(t, got, "tickTime=3000\n")
	})

	t.Run("single member", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, renderEnsemble(&out, []byte(manifest), &renderOptions{member: 3, clusterDomain: "cluster.local"}))

		assert.Contains(t, out.String(), "# server 3:")
		assert.NotContains(t, out.String(), "# server 1:")
	})

	t.Run("unknown member", func(t *testing.T) {
		err := renderEnsemble(&bytes.Buffer{}, []byte(manifest), &renderOptions{member: 9})
		assert.ErrorContains(t, err, "no member with server id 9")
	})

	t.Run("unknown field", func(t *testing.T) {
		err := renderEnsemble(&bytes.Buffer{}, []byte(manifest+"  replicas: 3\n"), &renderOptions{})
		assert.ErrorContains(t, err, "failed to parse manifest")
	})

	t.Run("unknown config key", func(t *testing.T) {
		bad := []byte(`metadata:
  name: zk
spec:
  version: 3.9.2
  servers:
    roleGroups:
      default:
        replicas: 1
        config:
          tickTimeMs: "1"
`)
		err := renderEnsemble(&bytes.Buffer{}, bad, &renderOptions{})
		assert.ErrorContains(t, err, "tickTimeMs")
	})
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	var out bytes.Buffer
	cmd := Render()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-f", path, "--member", "1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "# server 1: ConfigMap zk-server-primary-0")
}
