package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComponentKind enumerates the component kinds a descriptor may carry.
// Components are resolved to this closed set once, at parse time; unknown
// kinds are rejected by the parser.
type ComponentKind string

const (
	KindOutputPort ComponentKind = "outputport"
	KindWorkload   ComponentKind = "workload"
	KindStorage    ComponentKind = "storage"
)

func parseKind(raw string) (ComponentKind, error) {
	switch ComponentKind(strings.ToLower(raw)) {
	case KindOutputPort:
		return KindOutputPort, nil
	case KindWorkload:
		return KindWorkload, nil
	case KindStorage:
		return KindStorage, nil
	default:
		return "", fmt.Errorf("unknown component kind %q", raw)
	}
}

// subcomponentIDSegments is the number of colon-separated segments in a
// fully qualified subcomponent ID. Shorter IDs identify the parent
// component itself.
const subcomponentIDSegments = 8

// IsParentComponentID reports whether id identifies a parent component
// rather than one of its collection-level subcomponents.
func IsParentComponentID(id string) bool {
	return len(strings.Split(id, ":")) < subcomponentIDSegments
}

// ParentComponentID strips the trailing segment from a subcomponent ID,
// yielding the ID of the owning component. Parent IDs are returned as-is.
func ParentComponentID(id string) string {
	if IsParentComponentID(id) {
		return id
	}
	return id[:strings.LastIndex(id, ":")]
}

// ValueSchema is an optional JSON-Schema validator attached to a
// subcomponent. Definition holds the schema as a JSON string; it is parsed
// into a document when the collection is created.
type ValueSchema struct {
	Type       string `yaml:"type" json:"type"`
	Definition string `yaml:"definition" json:"definition"`
}

// UnmarshalYAML rejects malformed schema definitions at parse time so that
// provisioning never reaches the database with an unparseable validator.
func (s *ValueSchema) UnmarshalYAML(node *yaml.Node) error {
	type plain ValueSchema
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if !strings.EqualFold(p.Type, "JSON") {
		return fmt.Errorf("unsupported value schema type %q", p.Type)
	}
	if !json.Valid([]byte(p.Definition)) {
		return fmt.Errorf("value schema definition is not valid JSON")
	}
	*s = ValueSchema(p)
	return nil
}

// Validator parses the schema definition into the validator document the
// database expects.
func (s *ValueSchema) Validator() (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal([]byte(s.Definition), &v); err != nil {
		return nil, fmt.Errorf("value schema definition is not valid JSON: %w", err)
	}
	return v, nil
}

// SubcomponentSpecific holds the MongoDB-specific section of a subcomponent.
type SubcomponentSpecific struct {
	Collection  string       `yaml:"collection"`
	ValueSchema *ValueSchema `yaml:"valueSchema"`
}

// Subcomponent is the collection-level unit nested under an output port.
// It maps 1:1 to a physical collection in the parent's database.
type Subcomponent struct {
	ID                string               `yaml:"id"`
	Name              string               `yaml:"name"`
	Description       string               `yaml:"description"`
	Kind              string               `yaml:"kind"`
	UseCaseTemplateID string               `yaml:"useCaseTemplateId"`
	Consumable        bool                 `yaml:"consumable"`
	Shoppable         bool                 `yaml:"shoppable"`
	Specific          SubcomponentSpecific `yaml:"specific"`
}

// ComponentSpecific holds the MongoDB-specific section of an output port.
type ComponentSpecific struct {
	Database string `yaml:"database"`
}

// OutputPort is a provisionable data product component backed by a MongoDB
// database. Its subcomponents share the database and each own a collection.
type OutputPort struct {
	ID                       string            `yaml:"id"`
	Name                     string            `yaml:"name"`
	Description              string            `yaml:"description"`
	Kind                     string            `yaml:"kind"`
	Version                  string            `yaml:"version"`
	UseCaseTemplateID        string            `yaml:"useCaseTemplateId"`
	InfrastructureTemplateID string            `yaml:"infrastructureTemplateId"`
	Consumable               bool              `yaml:"consumable"`
	Shoppable                bool              `yaml:"shoppable"`
	Specific                 ComponentSpecific `yaml:"specific"`
	Components               []Subcomponent    `yaml:"components"`
}

// SubcomponentByID returns the subcomponent with the given ID, or nil when
// the output port has no such subcomponent.
func (p *OutputPort) SubcomponentByID(id string) *Subcomponent {
	for i := range p.Components {
		if p.Components[i].ID == id {
			return &p.Components[i]
		}
	}
	return nil
}

// Workload is a non-provisionable component kind carried through parsing so
// descriptors that mix kinds remain valid.
type Workload struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Kind              string `yaml:"kind"`
	UseCaseTemplateID string `yaml:"useCaseTemplateId"`
}

// StorageArea is a non-provisionable component kind carried through parsing.
type StorageArea struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Kind              string `yaml:"kind"`
	UseCaseTemplateID string `yaml:"useCaseTemplateId"`
}

// Component is the closed variant over the kinds a descriptor may carry.
// Exactly one payload field is non-nil, matching Kind.
type Component struct {
	ID         string
	Kind       ComponentKind
	OutputPort *OutputPort
	Workload   *Workload
	Storage    *StorageArea
}

// UnmarshalYAML resolves the component kind once and decodes the matching
// payload, so every later consumption site can switch exhaustively on Kind.
func (c *Component) UnmarshalYAML(node *yaml.Node) error {
	var probe struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	}
	if err := node.Decode(&probe); err != nil {
		return err
	}
	kind, err := parseKind(probe.Kind)
	if err != nil {
		return err
	}
	c.ID = probe.ID
	c.Kind = kind
	switch kind {
	case KindOutputPort:
		var op OutputPort
		if err := node.Decode(&op); err != nil {
			return fmt.Errorf("component %s: %w", probe.ID, err)
		}
		c.OutputPort = &op
	case KindWorkload:
		var w Workload
		if err := node.Decode(&w); err != nil {
			return fmt.Errorf("component %s: %w", probe.ID, err)
		}
		c.Workload = &w
	case KindStorage:
		var s StorageArea
		if err := node.Decode(&s); err != nil {
			return fmt.Errorf("component %s: %w", probe.ID, err)
		}
		c.Storage = &s
	}
	return nil
}

// DataProduct is the root of the descriptor: ownership, environment, and
// the full component list. It is transient, parsed fresh per request.
type DataProduct struct {
	ID               string      `yaml:"id"`
	Name             string      `yaml:"name"`
	Domain           string      `yaml:"domain"`
	Environment      string      `yaml:"environment"`
	Version          string      `yaml:"version"`
	DataProductOwner string      `yaml:"dataProductOwner"`
	Components       []Component `yaml:"components"`
}

// ComponentByID returns the component with the given ID, or nil.
func (dp *DataProduct) ComponentByID(id string) *Component {
	for i := range dp.Components {
		if dp.Components[i].ID == id {
			return &dp.Components[i]
		}
	}
	return nil
}

// OutputPortByID resolves id to an output-port component. A missing ID or a
// component of a different kind is a validation failure.
func (dp *DataProduct) OutputPortByID(id string) (*OutputPort, error) {
	c := dp.ComponentByID(id)
	if c == nil {
		return nil, ErrValidation("Component with ID %s not found in descriptor", id)
	}
	switch c.Kind {
	case KindOutputPort:
		return c.OutputPort, nil
	case KindWorkload, KindStorage:
		return nil, ErrValidation("Component with ID %s is a %s, not a MongoDB output port", id, c.Kind)
	default:
		return nil, ErrValidation("Component with ID %s has unsupported kind %q", id, c.Kind)
	}
}

// Descriptor is the parsed provisioning descriptor: the data product plus
// the ID of the component (or subcomponent) to act on.
type Descriptor struct {
	DataProduct            DataProduct `yaml:"dataProduct"`
	ComponentIDToProvision string      `yaml:"componentIdToProvision"`
}

// ParseDescriptor parses the YAML descriptor document sent by the platform.
func ParseDescriptor(raw string) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	return &d, nil
}
