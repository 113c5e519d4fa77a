package presets

import "institute-service/pkg/rbac"

// Preset is a named RBAC configuration constructor.
type Preset struct {
	Name   string
	Config func() rbac.Config
}

// All returns every registered preset. Add new presets here so they are
// automatically included in validation.
func All() []Preset {
	return []Preset{
		{Name: "institute", Config: Institute},
	}
}

// Lookup returns the preset registered under name.
func Lookup(name string) (Preset, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
