package labels

import (
	"testing"

	k8slabels "k8s.io/apimachinery/pkg/labels"
)

func TestNewLabelBuilder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		clusterName string
	}{
		{"simple cluster name", "my-zk"},
		{"with numbers", "zk-01"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			labels := NewLabelBuilder(tt.clusterName).Build()

			if labels[KeyInstance] != tt.clusterName {
				t.Errorf("expected %s=%q, got %q", KeyInstance, tt.clusterName, labels[KeyInstance])
			}
			if labels[KeyManagedBy] != ManagedByOperator {
				t.Errorf("expected %s=%q, got %q", KeyManagedBy, ManagedByOperator, labels[KeyManagedBy])
			}
			if labels[KeyName] != AppName {
				t.Errorf("expected %s=%q, got %q", KeyName, AppName, labels[KeyName])
			}
		})
	}
}

func TestWithMember(t *testing.T) {
	t.Parallel()
	labels := NewLabelBuilder("zk").WithRoleGroup("default").WithMember(7, 2).Build()

	if labels[KeyRoleGroup] != "default" {
		t.Errorf("expected role group default, got %q", labels[KeyRoleGroup])
	}
	if labels[KeyMemberID] != "7" {
		t.Errorf("expected member id 7, got %q", labels[KeyMemberID])
	}
	if labels[KeyOrdinal] != "2" {
		t.Errorf("expected ordinal 2, got %q", labels[KeyOrdinal])
	}
}

func TestWithVersion(t *testing.T) {
	t.Parallel()
	if _, ok := NewLabelBuilder("zk").WithVersion("").Build()[KeyVersion]; ok {
		t.Error("empty version should not set the version label")
	}
	if got := NewLabelBuilder("zk").WithVersion("3.9.2").Build()[KeyVersion]; got != "3.9.2" {
		t.Errorf("expected version 3.9.2, got %q", got)
	}
}

func TestBuild_ReturnsCopy(t *testing.T) {
	t.Parallel()
	lb := NewLabelBuilder("zk")
	first := lb.Build()
	first["mutated"] = "yes"

	if _, ok := lb.Build()["mutated"]; ok {
		t.Error("Build should return a copy")
	}
}

func TestSelectorLabels_ExcludeVersion(t *testing.T) {
	t.Parallel()
	sel := SelectorLabels("zk", "primary")
	if _, ok := sel[KeyVersion]; ok {
		t.Error("selector labels must not include the version")
	}
	if sel[KeyRoleGroup] != "primary" {
		t.Errorf("expected role group primary, got %q", sel[KeyRoleGroup])
	}
}

func TestSelectorForCluster(t *testing.T) {
	t.Parallel()
	sel := SelectorForCluster("zk")
	owned := NewLabelBuilder("zk").Build()
	foreign := NewLabelBuilder("other").Build()

	if !sel.Matches(k8slabels.Set(owned)) {
		t.Error("selector should match objects of the same ensemble")
	}
	if sel.Matches(k8slabels.Set(foreign)) {
		t.Error("selector should not match objects of another ensemble")
	}
}
