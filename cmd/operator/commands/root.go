// Package commands defines the operator's command structure and flag bindings.
//
// The root command runs the controller manager. Subcommands are utilities
// that work without a cluster connection.
package commands

import (
	"flag"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/config"
	"github.com/imamik/zookeeper-operator/internal/operator/controller"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(zookeeperv1alpha1.AddToScheme(scheme))
}

type managerOptions struct {
	metricsAddr          string
	probeAddr            string
	enableLeaderElection bool
	leaderElectionID     string
	configPath           string
	zap                  zap.Options
}

// Root returns the root command, which runs the controller manager.
func Root() *cobra.Command {
	opts := &managerOptions{
		zap: zap.Options{
			Development: os.Getenv("DEBUG") == "true" || isatty.IsTerminal(os.Stdout.Fd()),
		},
	}

	cmd := &cobra.Command{
		Use:           "zookeeper-operator",
		Short:         "Run the ZooKeeper ensemble operator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runManager(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flags.StringVar(&opts.probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flags.BoolVar(&opts.enableLeaderElection, "leader-elect", true, "Enable leader election for controller manager.")
	flags.StringVar(&opts.leaderElectionID, "leader-election-id", "zookeeper-operator", "The name of the leader election resource.")
	flags.StringVar(&opts.configPath, "config", "", "Path to the operator configuration file.")

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	opts.zap.BindFlags(zapFlags)
	flags.AddGoFlagSet(zapFlags)

	cmd.AddCommand(Render())
	cmd.AddCommand(Version())

	return cmd
}

func runManager(opts *managerOptions) error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts.zap)))

	setupLog.Info("starting zookeeper-operator", "version", version, "commit", commit)

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		setupLog.Error(err, "unable to load configuration", "path", opts.configPath)
		return err
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: opts.metricsAddr,
		},
		HealthProbeBindAddress: opts.probeAddr,
		LeaderElection:         opts.enableLeaderElection,
		LeaderElectionID:       opts.leaderElectionID,
		// The process exits right after the manager stops
		LeaderElectionReleaseOnCancel: true,
	})
	if err != nil {
		setupLog.Error(err, "unable to create manager")
		return err
	}

	if err = controller.NewZookeeperClusterReconciler(
		mgr.GetClient(),
		mgr.GetScheme(),
		mgr.GetEventRecorderFor("zookeepercluster-controller"),
		controller.WithConfig(cfg),
		controller.WithAPIReader(mgr.GetAPIReader()),
	).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "ZookeeperCluster")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		return err
	}

	setupLog.Info("starting manager", "workers", cfg.Workers)
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		return err
	}
	return nil
}
