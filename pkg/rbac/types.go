package rbac

// Role names a subject in permission tuples.
type Role string

// Resource names a module mounted under the API prefix.
type Resource string

// Action is a canonical operation on a resource.
type Action string

type RoleDefinition struct {
	Name        Role   `yaml:"name"`
	Description string `yaml:"description"`
}

// Link makes Child inherit every grant of Parent.
type Link struct {
	Child  Role `yaml:"child"`
	Parent Role `yaml:"parent"`
}
