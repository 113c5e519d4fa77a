package policy

import "strings"

// Policy types stored in the ptype column.
const (
	TypePermission = "p"
	TypeRoleLink   = "g"
)

// FieldCount is the number of value columns (v0..v6) a stored rule carries.
const FieldCount = 7

// Rule is one persisted tuple. Unused trailing fields are empty strings.
type Rule struct {
	ID    int64
	PType string
	V     [FieldCount]string
}

// NewRule builds a rule from its ordered values. Extra values beyond
// FieldCount are dropped.
func NewRule(ptype string, values ...string) Rule {
	r := Rule{PType: ptype}
	copy(r.V[:], values)
	return r
}

// Values returns the populated fields with trailing empties trimmed.
func (r Rule) Values() []string {
	n := FieldCount
	for n > 0 && r.V[n-1] == "" {
		n--
	}
	out := make([]string, n)
	copy(out, r.V[:n])
	return out
}

// Line renders the rule the way the decision engine's text loader expects it.
func (r Rule) Line() string {
	return r.PType + ", " + strings.Join(r.Values(), ", ")
}

// Grant is a (role, resource, action) permission tuple.
type Grant struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (g Grant) Rule() Rule {
	return NewRule(TypePermission, g.Role, g.Resource, g.Action)
}

// Link makes Child inherit every permission of Parent.
type Link struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

func (l Link) Rule() Rule {
	return NewRule(TypeRoleLink, l.Child, l.Parent)
}

// Filter selects stored rules of one ptype. Each of the seven positions is an
// optional exact-match criterion on the matching v-column.
type Filter struct {
	PType    string
	Criteria [FieldCount]Criterion
}

type Criterion struct {
	Set   bool
	Value string
}

// NewFilter mirrors the decision engine's filtered-removal signature: values
// are applied from fieldIndex onward and empty values are wildcards.
func NewFilter(ptype string, fieldIndex int, values ...string) Filter {
	f := Filter{PType: ptype}
	for i, v := range values {
		pos := fieldIndex + i
		if pos < 0 || pos >= FieldCount || v == "" {
			continue
		}
		f.Criteria[pos] = Criterion{Set: true, Value: v}
	}
	return f
}

// Matches reports whether the rule satisfies every set criterion.
func (f Filter) Matches(r Rule) bool {
	if r.PType != f.PType {
		return false
	}
	for i, c := range f.Criteria {
		if c.Set && r.V[i] != c.Value {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no column criterion is set.
func (f Filter) IsEmpty() bool {
	for _, c := range f.Criteria {
		if c.Set {
			return false
		}
	}
	return true
}
