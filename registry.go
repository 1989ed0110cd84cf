package ingestrt

import "github.com/corestream/ingestrt/ingesterr"

// registry is the resource registry (C4): a read-only sequence of resource
// definitions, indexed once by name at construction. Declaration order is
// preserved — it is the ordering guarantee §4.5 and §5 rely on for
// within-message resource handling.
type registry struct {
	ordered []Resource
	byName  map[string]Resource
}

// newRegistry indexes resources by name, failing construction with
// DuplicateResource if any two share a name.
func newRegistry(resources []Resource) (*registry, error) {
	byName := make(map[string]Resource, len(resources))
	ordered := make([]Resource, 0, len(resources))
	for _, r := range resources {
		name := r.Name()
		if _, exists := byName[name]; exists {
			return nil, ingesterr.NewDuplicateResource(name)
		}
		byName[name] = r
		ordered = append(ordered, r)
	}
	return &registry{ordered: ordered, byName: byName}, nil
}

// names returns resource names in declaration order, the shape the source
// contract (§6) expects for its resources field.
func (reg *registry) names() []string {
	out := make([]string, len(reg.ordered))
	for i, r := range reg.ordered {
		out[i] = r.Name()
	}
	return out
}
