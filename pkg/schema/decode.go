package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// document mirrors the top level of a flow file.
type document struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	InitialState string    `yaml:"initial_state"`
	States       yaml.Node `yaml:"states"`
}

// stateDocument mirrors one entry of the states mapping.
type stateDocument struct {
	Message     string              `yaml:"message"`
	Options     yaml.Node           `yaml:"options"`
	Transitions yaml.Node           `yaml:"transitions"`
	Keywords    map[string][]string `yaml:"keywords"`
	Actions     []any               `yaml:"actions"`
	End         bool                `yaml:"end"`
}

// actionDocument is decoded with mapstructure from the loosely typed action list.
// Both {type: collect_data, field: pnr} and the shorthand {collect_data: pnr} are accepted.
type actionDocument struct {
	Type        string             `mapstructure:"type"`
	Field       string             `mapstructure:"field"`
	CollectData string             `mapstructure:"collect_data"`
	Validator   *validatorDocument `mapstructure:"validator"`
	MaxAttempts int                `mapstructure:"max_attempts"`
	OnExhausted string             `mapstructure:"on_exhausted"`
}

type validatorDocument struct {
	Digits    bool   `mapstructure:"digits"`
	Length    int    `mapstructure:"length"`
	MinLength int    `mapstructure:"min_length"`
	MaxLength int    `mapstructure:"max_length"`
	Pattern   string `mapstructure:"pattern"`
	Message   string `mapstructure:"message"`
}

// Decode parses a single flow document.
func Decode(data []byte) (*domain.FlowDefinition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed document: %v", err)}
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, &ValidationError{Reason: "flow name is required"}
	}

	flow := &domain.FlowDefinition{
		Name:         strings.TrimSpace(doc.Name),
		Description:  doc.Description,
		InitialState: strings.TrimSpace(doc.InitialState),
		States:       make(map[string]*domain.StateDefinition),
	}

	pairs, err := orderedPairs(&doc.States)
	if err != nil {
		return nil, invalid(flow.Name, "", "states: %v", err)
	}

	for _, p := range pairs {
		id := p.key
		if _, dup := flow.States[id]; dup {
			return nil, invalid(flow.Name, id, "duplicate state id")
		}
		var sd stateDocument
		if err := p.value.Decode(&sd); err != nil {
			return nil, invalid(flow.Name, id, "malformed state: %v", err)
		}
		state, err := decodeState(flow.Name, id, &sd)
		if err != nil {
			return nil, err
		}
		flow.States[id] = state
		flow.Order = append(flow.Order, id)
	}

	return flow, nil
}

func decodeState(flow, id string, sd *stateDocument) (*domain.StateDefinition, error) {
	state := &domain.StateDefinition{
		ID:      id,
		Message: sd.Message,
		End:     sd.End,
	}

	optPairs, err := orderedPairs(&sd.Options)
	if err != nil {
		return nil, invalid(flow, id, "options: %v", err)
	}
	for _, p := range optPairs {
		if p.value.Kind != yaml.ScalarNode {
			return nil, invalid(flow, id, "option %q: label must be a string", p.key)
		}
		state.Options = append(state.Options, domain.Option{Key: p.key, Label: p.value.Value})
	}

	trPairs, err := orderedPairs(&sd.Transitions)
	if err != nil {
		return nil, invalid(flow, id, "transitions: %v", err)
	}
	for _, p := range trPairs {
		if p.value.Kind != yaml.ScalarNode || strings.TrimSpace(p.value.Value) == "" {
			return nil, invalid(flow, id, "transition %q: target must be a non-empty string", p.key)
		}
		state.Transitions = append(state.Transitions, domain.Transition{
			Key:      p.key,
			Target:   domain.ParseTarget(p.value.Value),
			Keywords: keywordsFor(p.key, sd.Keywords, state.Options),
		})
	}

	for i, raw := range sd.Actions {
		action, err := decodeAction(raw)
		if err != nil {
			return nil, invalid(flow, id, "action %d: %v", i, err)
		}
		state.Actions = append(state.Actions, action)
	}

	return state, nil
}

// keywordsFor returns the explicit keyword set for key, or the option label as a fallback.
func keywordsFor(key string, explicit map[string][]string, options domain.Options) []string {
	if key == domain.DefaultKey {
		return nil
	}
	var out []string
	if kws, ok := explicit[key]; ok {
		for _, kw := range kws {
			if kw = normalizeKeyword(kw); kw != "" {
				out = append(out, kw)
			}
		}
		return out
	}
	if label, ok := options.Get(key); ok {
		if kw := normalizeKeyword(label); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func decodeAction(raw any) (domain.ActionSpec, error) {
	if name, ok := raw.(string); ok {
		return domain.ActionSpec{}, fmt.Errorf("action %q needs parameters (e.g. {type: %s, field: ...})", name, name)
	}

	var ad actionDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &ad,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return domain.ActionSpec{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.ActionSpec{}, err
	}

	if ad.CollectData != "" {
		if ad.Type != "" && ad.Type != string(domain.ActionCollectData) {
			return domain.ActionSpec{}, fmt.Errorf("shorthand collect_data conflicts with type %q", ad.Type)
		}
		ad.Type = string(domain.ActionCollectData)
		if ad.Field == "" {
			ad.Field = ad.CollectData
		}
	}

	switch domain.ActionType(ad.Type) {
	case domain.ActionCollectData:
		collect := &domain.CollectData{
			Field:       strings.TrimSpace(ad.Field),
			MaxAttempts: ad.MaxAttempts,
		}
		if ad.OnExhausted != "" {
			t := domain.ParseTarget(ad.OnExhausted)
			collect.OnExhausted = &t
		}
		if ad.Validator != nil {
			v, err := decodeValidator(ad.Validator)
			if err != nil {
				return domain.ActionSpec{}, err
			}
			collect.Validator = v
		}
		return domain.ActionSpec{Type: domain.ActionCollectData, Collect: collect}, nil
	case "":
		return domain.ActionSpec{}, fmt.Errorf("action type is required")
	default:
		return domain.ActionSpec{}, fmt.Errorf("unknown action type %q", ad.Type)
	}
}

func decodeValidator(vd *validatorDocument) (*domain.InputValidator, error) {
	v := &domain.InputValidator{
		Digits:    vd.Digits,
		Length:    vd.Length,
		MinLength: vd.MinLength,
		MaxLength: vd.MaxLength,
		Message:   vd.Message,
	}
	if vd.Pattern != "" {
		re, err := regexp.Compile(vd.Pattern)
		if err != nil {
			return nil, fmt.Errorf("validator pattern: %w", err)
		}
		v.Pattern = re
	}
	return v, nil
}

type pair struct {
	key   string
	value *yaml.Node
}

// orderedPairs walks a YAML mapping node preserving document order.
// A zero (absent) node yields no pairs.
func orderedPairs(n *yaml.Node) ([]pair, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, got %s", kindName(n.Kind))
	}

	pairs := make([]pair, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", k.Line)
		}
		key := strings.TrimSpace(k.Value)
		if seen[key] {
			return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, key)
		}
		seen[key] = true
		pairs = append(pairs, pair{key: key, value: v})
	}
	return pairs, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
