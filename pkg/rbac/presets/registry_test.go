package presets_test

import (
	"testing"

	"institute-service/internal/authz"
	"institute-service/pkg/rbac/presets"
)

// TestAllPresetsAreValid iterates every registered preset and ensures it
// passes Config.Validate() and that every flattened rule is storable.
func TestAllPresetsAreValid(t *testing.T) {
	all := presets.All()
	if len(all) == 0 {
		t.Fatal("presets.All() returned no presets")
	}

	for _, p := range all {
		t.Run(p.Name, func(t *testing.T) {
			cfg := p.Config()

			if err := cfg.Validate(); err != nil {
				t.Fatalf("preset %q has invalid config: %v", p.Name, err)
			}

			rules := cfg.Rules()
			if len(rules) == 0 {
				t.Fatalf("preset %q produced no rules", p.Name)
			}
			for _, r := range rules {
				if err := authz.ValidateRule(r); err != nil {
					t.Errorf("preset %q rule %v: %v", p.Name, r, err)
				}
			}
		})
	}
}

// TestAllPresetsHaveUniqueNames ensures no two presets share the same name.
func TestAllPresetsHaveUniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range presets.All() {
		if seen[p.Name] {
			t.Errorf("duplicate preset name: %q", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestLookup(t *testing.T) {
	if _, ok := presets.Lookup("institute"); !ok {
		t.Error("institute preset should be registered")
	}
	if _, ok := presets.Lookup("missing"); ok {
		t.Error("unknown preset should not be found")
	}
}
