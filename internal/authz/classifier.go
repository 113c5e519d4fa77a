package authz

import (
	"path"
	"strings"
)

// Canonical actions stored in permission tuples.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionList   = "list"
	ActionView   = "view"
	ActionReload = "reload"
)

type routeTemplate struct {
	pattern string
	action  string
}

// routeTemplates maps conventional module sub-routes to canonical actions.
var routeTemplates = []routeTemplate{
	{"add", ActionAdd},
	{"create", ActionAdd},
	{"update/:id", ActionUpdate},
	{"edit/:id", ActionUpdate},
	{"delete/:id", ActionDelete},
	{"remove/:id", ActionDelete},
	{"list", ActionList},
	{"all", ActionList},
	{"view/:id", ActionView},
	{"get/:id", ActionView},
	{"reload", ActionReload},
}

// Classifier derives (resource, action) from a request path mounted under a
// fixed API prefix. It holds no per-request state.
type Classifier struct {
	prefix  string
	actions map[string]string
}

func NewClassifier(prefix string) *Classifier {
	actions := make(map[string]string, len(routeTemplates))
	for _, t := range routeTemplates {
		actions[normalizeSubPath(t.pattern)] = t.action
	}

	return &Classifier{
		prefix:  strings.TrimSuffix(prefix, "/"),
		actions: actions,
	}
}

// Classify returns the module segment as resource and the mapped action for
// the remaining sub-path. Unmapped sub-paths yield their normalized text,
// which matches no stored tuple. Paths outside the prefix yield empty values.
func (c *Classifier) Classify(requestPath string) (resource, action string) {
	cleaned := path.Clean("/" + requestPath)

	rest, ok := strings.CutPrefix(cleaned, c.prefix)
	if !ok || (rest != "" && rest[0] != '/') {
		return "", ""
	}

	resource, subPath, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	if resource == "" {
		return "", ""
	}

	normalized := normalizeSubPath(subPath)
	if mapped, ok := c.actions[normalized]; ok {
		return resource, mapped
	}
	return resource, normalized
}

// normalizeSubPath strips surrounding slashes and, when more than one segment
// remains, drops the trailing parameter segment.
func normalizeSubPath(subPath string) string {
	trimmed := strings.Trim(subPath, "/")
	if trimmed == "" {
		return ""
	}

	segments := strings.Split(trimmed, "/")
	if len(segments) > 1 {
		segments = segments[:len(segments)-1]
	}
	return strings.Join(segments, "/")
}
