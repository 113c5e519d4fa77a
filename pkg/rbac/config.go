package rbac

import (
	"bytes"
	"errors"
	"fmt"
	"institute-service/internal/domain/policy"
	"institute-service/pkg/validator"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid rbac config")

// Config is a complete, declarative policy set: the roles that exist, the
// vocabulary of resources and actions, the grants, and inheritance links.
type Config struct {
	Roles     []RoleDefinition               `yaml:"roles"`
	Resources []Resource                     `yaml:"resources"`
	Actions   []Action                       `yaml:"actions"`
	Grants    map[Role]map[Resource][]Action `yaml:"grants"`
	Links     []Link                         `yaml:"links"`
}

// Validate checks structure and cross references. Link cycles are rejected.
func (c Config) Validate() error {
	if len(c.Roles) == 0 {
		return invalid("Roles must not be empty")
	}
	if len(c.Resources) == 0 {
		return invalid("Resources must not be empty")
	}
	if len(c.Actions) == 0 {
		return invalid("Actions must not be empty")
	}

	roles := make(map[Role]bool, len(c.Roles))
	for _, rd := range c.Roles {
		if rd.Name == "" {
			return invalid("role name must not be empty")
		}
		if err := validator.RoleName(string(rd.Name)); err != nil {
			return invalid("role %q: %v", rd.Name, err)
		}
		if roles[rd.Name] {
			return invalid("duplicate role name %q", rd.Name)
		}
		roles[rd.Name] = true
	}

	resources := make(map[Resource]bool, len(c.Resources))
	for _, res := range c.Resources {
		if err := validator.Resource(string(res)); err != nil {
			return invalid("resource %q: %v", res, err)
		}
		if resources[res] {
			return invalid("duplicate resource %q", res)
		}
		resources[res] = true
	}

	actions := make(map[Action]bool, len(c.Actions))
	for _, act := range c.Actions {
		if err := validator.Action(string(act)); err != nil {
			return invalid("action %q: %v", act, err)
		}
		if actions[act] {
			return invalid("duplicate action %q", act)
		}
		actions[act] = true
	}

	for role, grants := range c.Grants {
		if !roles[role] {
			return invalid("grant references unknown role %q", role)
		}
		for res, acts := range grants {
			if !resources[res] {
				return invalid("grant for %q references unknown resource %q", role, res)
			}
			for _, act := range acts {
				if !actions[act] {
					return invalid("grant %s/%s references unknown action %q", role, res, act)
				}
			}
		}
	}

	parents := make(map[Role][]Role, len(c.Links))
	for _, l := range c.Links {
		if !roles[l.Child] || !roles[l.Parent] {
			return invalid("link %s -> %s references unknown role", l.Child, l.Parent)
		}
		if l.Child == l.Parent {
			return invalid("role %q cannot inherit itself", l.Child)
		}
		parents[l.Child] = append(parents[l.Child], l.Parent)
	}

	for _, rd := range c.Roles {
		if hasCycle(rd.Name, parents, map[Role]bool{}) {
			return invalid("link cycle through role %q", rd.Name)
		}
	}

	return nil
}

// Rules flattens the config into stored tuples in declaration order.
func (c Config) Rules() []policy.Rule {
	var rules []policy.Rule
	for _, rd := range c.Roles {
		grants := c.Grants[rd.Name]
		for _, res := range c.Resources {
			for _, act := range grants[res] {
				rules = append(rules, policy.Grant{
					Role:     string(rd.Name),
					Resource: string(res),
					Action:   string(act),
				}.Rule())
			}
		}
	}

	for _, l := range c.Links {
		rules = append(rules, policy.Link{Child: string(l.Child), Parent: string(l.Parent)}.Rule())
	}

	return rules
}

// LoadFile reads a YAML config and validates it. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func hasCycle(role Role, parents map[Role][]Role, visiting map[Role]bool) bool {
	if visiting[role] {
		return true
	}
	visiting[role] = true
	for _, p := range parents[role] {
		if hasCycle(p, parents, visiting) {
			return true
		}
	}
	delete(visiting, role)
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
