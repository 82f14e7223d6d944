package runtime

import (
	"fmt"
	"regexp"
)

// ValidationResult accumulates every problem found in one pass. Errors make
// a flow unrunnable; warnings flag suspicious but legal constructs.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	variableTypes = map[string]bool{
		"string":  true,
		"number":  true,
		"boolean": true,
		"array":   true,
		"object":  true,
	}

	inputValidations = map[string]bool{
		"email":  true,
		"phone":  true,
		"url":    true,
		"number": true,
		"date":   true,
		"time":   true,
		"regex":  true,
	}
)

// ValidateFlow runs static analysis over a flow definition. It never
// panics: a nil or malformed flow yields errors, not exceptions. All
// checks accumulate so a single call reports every problem.
func ValidateFlow(flow *Flow) ValidationResult {
	result := ValidationResult{}

	if flow == nil {
		result.addError("Flow is required")
		return result
	}

	// Unusable shapes short-circuit the node/edge checks.
	if flow.Nodes == nil {
		result.addError("Flow must have a nodes array")
	}
	if flow.Edges == nil {
		result.addError("Flow must have an edges array")
	}
	if len(result.Errors) > 0 {
		return result
	}

	result.merge(validateNodes(flow.Nodes))
	result.merge(validateEdges(flow.Edges, nodeIDSet(flow.Nodes)))
	result.merge(validateStructure(flow))
	result.merge(validateVariables(flow.Variables))

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateNode checks a single node in isolation, for interactive per-node
// editor validation.
func ValidateNode(node *Node) ValidationResult {
	result := ValidationResult{}
	if node == nil {
		result.addError("Node is required")
		return result
	}
	validateNode(node, 0, &result)
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateEdge checks a single edge. knownNodeIDs may be nil to skip
// endpoint existence checks.
func ValidateEdge(edge *Edge, knownNodeIDs map[string]bool) ValidationResult {
	result := ValidationResult{}
	if edge == nil {
		result.addError("Edge is required")
		return result
	}
	validateEdge(edge, 0, knownNodeIDs, &result)
	result.Valid = len(result.Errors) == 0
	return result
}

func nodeIDSet(nodes []Node) map[string]bool {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID != "" {
			ids[n.ID] = true
		}
	}
	return ids
}

func validateNodes(nodes []Node) ValidationResult {
	result := ValidationResult{}
	seen := make(map[string]bool, len(nodes))

	for i := range nodes {
		node := &nodes[i]
		if node.ID != "" {
			if seen[node.ID] {
				result.addError("Duplicate node id: %s", node.ID)
			}
			seen[node.ID] = true
		}
		validateNode(node, i, &result)
	}
	return result
}

func validateNode(node *Node, index int, result *ValidationResult) {
	if node.ID == "" {
		result.addError("Node at index %d is missing an id", index)
		return
	}
	if node.Type == "" {
		result.addError("Node %s is missing a type", node.ID)
		return
	}
	if !nodeTypes[node.Type] {
		result.addError("Node %s has unknown type %q", node.ID, node.Type)
		return
	}
	if node.Data == nil && node.Type != NodeTypeStart && node.Type != NodeTypeEnd {
		result.addError("Node %s is missing data", node.ID)
		return
	}

	validateNodeData(node, result)
}

// validateNodeData enforces per-type required fields. Presence checks run
// on the raw payload so that explicitly-empty values (options: [],
// value: false) are distinguishable from missing keys; the typed decode
// then catches payloads of the wrong shape.
func validateNodeData(node *Node, result *ValidationResult) {
	data := node.Data

	switch node.Type {
	case NodeTypeQuestion, NodeTypeMenu:
		options, ok := data["options"].([]any)
		if !ok {
			result.addError("%s node %s must have an options array", nodeLabel(node.Type), node.ID)
		} else if len(options) == 0 {
			result.addWarning("%s node %s has no options", nodeLabel(node.Type), node.ID)
		}

	case NodeTypeInput:
		if toString(data["variableName"]) == "" {
			result.addError("Input node %s must specify variableName", node.ID)
		}
		if v, ok := data["validation"]; ok {
			if !inputValidations[toString(v)] {
				result.addWarning("Input node %s has unknown validation type %q", node.ID, toString(v))
			}
		}

	case NodeTypeSetVariable:
		if toString(data["variableName"]) == "" {
			result.addError("Set variable node %s must specify variableName", node.ID)
		}

	case NodeTypeCondition:
		conditions, ok := data["conditions"].([]any)
		if !ok || len(conditions) == 0 {
			result.addError("Condition node %s must have at least one condition", node.ID)
			return
		}
		for i, entry := range conditions {
			m, ok := entry.(map[string]any)
			if !ok {
				result.addError("Condition %d of node %s is not an object", i, node.ID)
				continue
			}
			if toString(m["operator"]) == "" {
				result.addError("Condition %d of node %s is missing an operator", i, node.ID)
			}
			if _, ok := m["value"]; !ok {
				result.addError("Condition %d of node %s is missing a value", i, node.ID)
			}
		}

	case NodeTypeAPICall:
		if toString(data["endpoint"]) == "" {
			result.addError("API call node %s must specify endpoint", node.ID)
		}

	case NodeTypeWebhook:
		if toString(data["url"]) == "" {
			result.addError("Webhook node %s must specify url", node.ID)
		}

	case NodeTypeGoto:
		if toString(data["targetNodeId"]) == "" {
			result.addError("Goto node %s must specify targetNodeId", node.ID)
		}

	case NodeTypeMessage:
		// A blank message is legal but suspicious.
		if toString(data["content"]) == "" && toString(data["label"]) == "" {
			result.addWarning("Message node %s has no content", node.ID)
		}
	}

	if _, err := DecodeNodeData(node); err != nil {
		result.addError("Node %s has a malformed data payload: %v", node.ID, err)
	}
}

func nodeLabel(t NodeType) string {
	if t == NodeTypeMenu {
		return "Menu"
	}
	return "Question"
}

func validateEdges(edges []Edge, knownNodeIDs map[string]bool) ValidationResult {
	result := ValidationResult{}
	seen := make(map[string]bool, len(edges))

	for i := range edges {
		edge := &edges[i]
		if edge.ID != "" {
			if seen[edge.ID] {
				result.addError("Duplicate edge id: %s", edge.ID)
			}
			seen[edge.ID] = true
		}
		validateEdge(edge, i, knownNodeIDs, &result)
	}
	return result
}

func validateEdge(edge *Edge, index int, knownNodeIDs map[string]bool, result *ValidationResult) {
	if edge.ID == "" {
		result.addError("Edge at index %d is missing an id", index)
		return
	}
	if edge.Source == "" {
		result.addError("Edge %s is missing a source", edge.ID)
	}
	if edge.Target == "" {
		result.addError("Edge %s is missing a target", edge.ID)
	}
	if edge.Source == "" || edge.Target == "" {
		return
	}

	if knownNodeIDs != nil {
		if !knownNodeIDs[edge.Source] {
			result.addError("Edge %s source references missing node %s", edge.ID, edge.Source)
		}
		if !knownNodeIDs[edge.Target] {
			result.addError("Edge %s target references missing node %s", edge.ID, edge.Target)
		}
	}

	if edge.Source == edge.Target {
		result.addWarning("Edge %s is a self-loop on node %s", edge.ID, edge.Source)
	}
}

func validateStructure(flow *Flow) ValidationResult {
	result := ValidationResult{}

	var startIDs []string
	for _, n := range flow.Nodes {
		if n.IsStart {
			startIDs = append(startIDs, n.ID)
		}
	}

	if len(startIDs) == 0 {
		result.addError("Flow must have at least one start node")
	} else if len(startIDs) > 1 {
		result.addWarning("Flow has multiple start nodes; the engine will use the first one")
	}

	// Forward reachability from every start node.
	reached := make(map[string]bool)
	for _, id := range startIDs {
		for n := range ReachableNodes(id, flow) {
			reached[n] = true
		}
	}
	if len(startIDs) > 0 {
		for _, n := range flow.Nodes {
			if !reached[n.ID] {
				result.addWarning("Unreachable node: %s", n.ID)
			}
		}
	}

	// Orphan means no one points to it, which is distinct from unreachable:
	// an unreachable self-loop still has an incoming edge.
	incoming := incomingCounts(flow)
	isStart := make(map[string]bool, len(startIDs))
	for _, id := range startIDs {
		isStart[id] = true
	}
	for _, n := range flow.Nodes {
		if incoming[n.ID] == 0 && !isStart[n.ID] {
			result.addWarning("Orphaned node: %s", n.ID)
		}
	}

	// Start nodes should not be re-enterable.
	for _, id := range startIDs {
		if incoming[id] > 0 {
			result.addWarning("Start node %s has incoming edges", id)
		}
	}

	// Cycles are legal (loops are common in conversation flows) but risk
	// non-termination; the engine's iteration cap bounds them at runtime.
	if cycles := CircularPaths(flow); len(cycles) > 0 {
		result.addWarning("Flow contains circular paths (%d found)", len(cycles))
	}

	hasEnd := false
	for _, n := range flow.Nodes {
		if n.Type == NodeTypeEnd {
			hasEnd = true
			break
		}
	}
	if !hasEnd {
		result.addWarning("Flow has no end node")
	}

	return result
}

func validateVariables(variables []VariableDecl) ValidationResult {
	result := ValidationResult{}
	seen := make(map[string]bool, len(variables))

	for i, decl := range variables {
		if decl.Name == "" {
			result.addError("Variable at index %d is missing a name", i)
			continue
		}
		if seen[decl.Name] {
			result.addError("Duplicate variable name: %s", decl.Name)
		}
		seen[decl.Name] = true

		if !identifierPattern.MatchString(decl.Name) {
			result.addError("Variable name %q is not a valid identifier", decl.Name)
		}
		if decl.Type != "" && !variableTypes[decl.Type] {
			result.addWarning("Variable %s has unknown type %q", decl.Name, decl.Type)
		}
	}
	return result
}
