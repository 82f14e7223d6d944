package runtime

// NodeType identifies a node's behavior. The set is closed: validation
// rejects flows containing any other value.
type NodeType string

const (
	NodeTypeStart       NodeType = "start"
	NodeTypeEnd         NodeType = "end"
	NodeTypeMessage     NodeType = "message"
	NodeTypeQuestion    NodeType = "question"
	NodeTypeInput       NodeType = "input"
	NodeTypeCondition   NodeType = "condition"
	NodeTypeAction      NodeType = "action"
	NodeTypeAPICall     NodeType = "api_call"
	NodeTypeSetVariable NodeType = "set_variable"
	NodeTypeWebhook     NodeType = "webhook"
	NodeTypeGoto        NodeType = "goto"
	NodeTypeEmail       NodeType = "email"
	NodeTypeMenu        NodeType = "menu"
)

var nodeTypes = map[NodeType]bool{
	NodeTypeStart:       true,
	NodeTypeEnd:         true,
	NodeTypeMessage:     true,
	NodeTypeQuestion:    true,
	NodeTypeInput:       true,
	NodeTypeCondition:   true,
	NodeTypeAction:      true,
	NodeTypeAPICall:     true,
	NodeTypeSetVariable: true,
	NodeTypeWebhook:     true,
	NodeTypeGoto:        true,
	NodeTypeEmail:       true,
	NodeTypeMenu:        true,
}

// Flow is an immutable-per-run conversation graph definition.
type Flow struct {
	ID        string         `yaml:"id" json:"id"`
	Nodes     []Node         `yaml:"nodes" json:"nodes"`
	Edges     []Edge         `yaml:"edges" json:"edges"`
	Variables []VariableDecl `yaml:"variables,omitempty" json:"variables,omitempty"`
	Settings  Settings       `yaml:"settings,omitempty" json:"settings,omitempty"`
}

type Settings struct {
	StartNodeID string `yaml:"startNodeId,omitempty" json:"startNodeId,omitempty"`
}

// Node is a single typed step in a flow. Data carries the type-specific
// payload; it stays loosely typed until decoded at the validation boundary.
type Node struct {
	ID      string         `yaml:"id" json:"id"`
	Type    NodeType       `yaml:"type" json:"type"`
	Data    map[string]any `yaml:"data" json:"data"`
	IsStart bool           `yaml:"isStart,omitempty" json:"isStart,omitempty"`
}

// Edge is a directed transition between two nodes. Label doubles as the
// branch-match key for question/menu answers and as the "default" marker.
type Edge struct {
	ID        string     `yaml:"id" json:"id"`
	Source    string     `yaml:"source" json:"source"`
	Target    string     `yaml:"target" json:"target"`
	Label     string     `yaml:"label,omitempty" json:"label,omitempty"`
	Condition *Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

type VariableDecl struct {
	Name         string `yaml:"name" json:"name"`
	Type         string `yaml:"type" json:"type"`
	DefaultValue any    `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// StartNode resolves the entry point: settings.startNodeId if it names an
// existing node, else the first node flagged isStart, else the first node
// in declaration order.
func (f *Flow) StartNode() *Node {
	if f.Settings.StartNodeID != "" {
		if n := f.NodeByID(f.Settings.StartNodeID); n != nil {
			return n
		}
	}
	for i := range f.Nodes {
		if f.Nodes[i].IsStart {
			return &f.Nodes[i]
		}
	}
	if len(f.Nodes) > 0 {
		return &f.Nodes[0]
	}
	return nil
}

// zeroValue returns the initial value for a declared variable type when no
// defaultValue is given. Unknown types initialize to nil.
func zeroValue(varType string) any {
	switch varType {
	case "string":
		return ""
	case "number":
		return 0
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	default:
		return nil
	}
}

// InitialVariables builds the starting variable scope: declared defaults
// (or type zero values) overlaid by the caller-supplied context. The merge
// is shallow; caller values win over declared defaults.
func (f *Flow) InitialVariables(callerContext map[string]any) map[string]any {
	vars := make(map[string]any, len(f.Variables)+len(callerContext))
	for _, decl := range f.Variables {
		if decl.DefaultValue != nil {
			vars[decl.Name] = decl.DefaultValue
		} else {
			vars[decl.Name] = zeroValue(decl.Type)
		}
	}
	for k, v := range callerContext {
		vars[k] = v
	}
	return vars
}
