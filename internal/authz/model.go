package authz

import "github.com/casbin/casbin/v2/model"

// rbacModelText grants when some "p" tuple matches the request exactly, with
// the subject resolved through transitive "g" inheritance. There is no deny
// effect.
const rbacModelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const (
	sectionPolicy = "p"
	sectionRole   = "g"

	permissionFields = 3
	linkFields       = 2
)

func newModel() (model.Model, error) {
	return model.NewModelFromString(rbacModelText)
}
