package runtime

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Typed payloads for each node type. The external data payload is a loose
// map; DecodeNodeData converts it into the matching struct at the
// validation boundary so execution code never digs through raw maps.

type MessageData struct {
	Content string `mapstructure:"content"`
	Label   string `mapstructure:"label"`
}

type QuestionData struct {
	Content      string   `mapstructure:"content"`
	Options      []string `mapstructure:"options"`
	VariableName string   `mapstructure:"variableName"`
}

type InputData struct {
	Prompt       string `mapstructure:"prompt"`
	VariableName string `mapstructure:"variableName"`
	Validation   string `mapstructure:"validation"`
	Pattern      string `mapstructure:"pattern"`
}

type ConditionData struct {
	Conditions []Condition `mapstructure:"conditions"`
}

type ActionData struct {
	Action string         `mapstructure:"action"`
	Args   map[string]any `mapstructure:"args"`
}

type APICallData struct {
	Endpoint       string            `mapstructure:"endpoint"`
	Method         string            `mapstructure:"method"`
	Headers        map[string]string `mapstructure:"headers"`
	Body           map[string]any    `mapstructure:"body"`
	ResultVariable string            `mapstructure:"resultVariable"`
}

type SetVariableData struct {
	VariableName string `mapstructure:"variableName"`
	Value        any    `mapstructure:"value"`
}

type WebhookData struct {
	URL     string         `mapstructure:"url"`
	Method  string         `mapstructure:"method"`
	Payload map[string]any `mapstructure:"payload"`
}

type GotoData struct {
	TargetNodeID string `mapstructure:"targetNodeId"`
}

type EmailData struct {
	To      string `mapstructure:"to"`
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

type MenuData struct {
	Prompt       string   `mapstructure:"prompt"`
	Options      []string `mapstructure:"options"`
	VariableName string   `mapstructure:"variableName"`
}

// DecodeNodeData decodes a node's raw data payload into the typed struct
// for its node type. Unknown node types are rejected here rather than deep
// in execution. start and end nodes carry no payload and decode to nil.
func DecodeNodeData(node *Node) (any, error) {
	var target any
	switch node.Type {
	case NodeTypeStart, NodeTypeEnd:
		return nil, nil
	case NodeTypeMessage:
		target = &MessageData{}
	case NodeTypeQuestion:
		target = &QuestionData{}
	case NodeTypeInput:
		target = &InputData{}
	case NodeTypeCondition:
		target = &ConditionData{}
	case NodeTypeAction:
		target = &ActionData{}
	case NodeTypeAPICall:
		target = &APICallData{}
	case NodeTypeSetVariable:
		target = &SetVariableData{}
	case NodeTypeWebhook:
		target = &WebhookData{}
	case NodeTypeGoto:
		target = &GotoData{}
	case NodeTypeEmail:
		target = &EmailData{}
	case NodeTypeMenu:
		target = &MenuData{}
	default:
		return nil, fmt.Errorf("unknown node type %q", node.Type)
	}

	if err := decodeMap(node.Data, target); err != nil {
		return nil, fmt.Errorf("node %s: invalid data payload: %w", node.ID, err)
	}
	return target, nil
}

// decodeMap converts a map into a struct, coercing scalar types the way
// JSON-authored payloads need (numbers arriving as float64, options given
// as numbers, etc.).
func decodeMap(m map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(m)
}
