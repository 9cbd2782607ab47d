package testing

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/log"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
)

// TestContext returns a context with a reasonable timeout for tests and a
// logger that discards everything.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return log.IntoContext(ctx, logr.Discard())
}

// NewScheme returns a scheme with the built-in and ZookeeperCluster types.
func NewScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(scheme))
	require.NoError(t, zookeeperv1alpha1.AddToScheme(scheme))
	return scheme
}
