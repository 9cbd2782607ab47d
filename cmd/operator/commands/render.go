package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/zkconfig"
)

type renderOptions struct {
	file          string
	member        int32
	clusterDomain string
}

// Render returns the render command.
func Render() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the config bundles of a ZookeeperCluster manifest",
		Long: `Render plans a fresh ensemble from a ZookeeperCluster manifest and prints
the config bundle every member would get, without contacting a cluster.`,
		Example: `  # Print every member's bundle
  zookeeper-operator render -f zk.yaml

  # Print only server 2
  zookeeper-operator render -f zk.yaml --member 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// #nosec G304
			data, err := os.ReadFile(opts.file)
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}
			return renderEnsemble(cmd.OutOrStdout(), data, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the ZookeeperCluster manifest")
	cmd.Flags().Int32Var(&opts.member, "member", 0, "Only print the member with this server id")
	cmd.Flags().StringVar(&opts.clusterDomain, "cluster-domain", topology.DefaultClusterDomain, "Kubernetes DNS domain")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func renderEnsemble(w io.Writer, manifest []byte, opts *renderOptions) error {
	zk := &zookeeperv1alpha1.ZookeeperCluster{}
	if err := yaml.UnmarshalStrict(manifest, zk); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if zk.Namespace == "" {
		zk.Namespace = "default"
	}

	domain := opts.clusterDomain
	if zk.Spec.ClusterDomain != "" {
		domain = zk.Spec.ClusterDomain
	}

	plan, err := topology.Compute(topology.Request{
		Name:          zk.Name,
		Namespace:     zk.Namespace,
		ClusterDomain: domain,
		Spec:          &zk.Spec,
	}, nil)
	if err != nil {
		return err
	}

	printed := 0
	for _, m := range plan.Members {
		if opts.member != 0 && m.ID != opts.member {
			continue
		}
		rendered, err := zkconfig.Render(zkconfig.Input{
			Version:    zk.Spec.Version,
			Overrides:  zk.Spec.Servers.RoleGroups[m.RoleGroup].Config,
			Membership: plan.Membership,
			Self:       m,
		})
		if err != nil {
			return fmt.Errorf("role group %s: %w", m.RoleGroup, err)
		}

		fmt.Fprintf(w, "# server %d: ConfigMap %s (checksum %s)\n",
			m.ID, naming.MemberConfig(zk.Name, m.RoleGroup, m.Ordinal), rendered.Checksum)
		for _, name := range rendered.FileNames() {
			fmt.Fprintf(w, "## %s\n%s", name, rendered.Files[name])
		}
		fmt.Fprintln(w)
		printed++
	}

	if printed == 0 {
		return fmt.Errorf("no member with server id %d", opts.member)
	}
	return nil
}
