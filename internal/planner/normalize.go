// internal/planner/normalize.go
package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/llmutil"
)

// oracleReply is the superset of shapes the oracle has been observed to emit.
// Normalization reduces every variant to []ActionDescriptor exactly once;
// nothing downstream branches on reply shape.
type oracleReply struct {
	Action  json.RawMessage   `json:"action"`
	Actions []json.RawMessage `json:"actions"`
	Done    *bool             `json:"done"`
	IsDone  *bool             `json:"isDone"`
	Context map[string]string `json:"context"`

	// Bare-object variant: the action fields sit at the top level.
	Type            string          `json:"type"`
	Target          json.RawMessage `json:"target"`
	Value           string          `json:"value"`
	OccurrenceIndex int             `json:"occurrenceIndex"`
}

// rawAction mirrors one action object, tolerating both "type" and "action"
// as the verb field and a string or object target.
type rawAction struct {
	Type            string          `json:"type"`
	Action          string          `json:"action"`
	Target          json.RawMessage `json:"target"`
	Selector        string          `json:"selector"`
	Value           string          `json:"value"`
	Text            string          `json:"text"`
	OccurrenceIndex int             `json:"occurrenceIndex"`
}

// noActionSentinels are verb strings meaning "nothing left to do".
var noActionSentinels = map[string]bool{
	"none": true,
	"done": true,
	"stop": true,
}

// normalize parses a raw oracle reply into a PlanResult. Parse failure yields
// a Malformed result, never an error escape.
func normalize(raw string) schemas.PlanResult {
	reply, err := llmutil.ParseJSONResponse[oracleReply](raw)
	if err != nil {
		return schemas.PlanResult{Malformed: true, Err: err}
	}

	result := schemas.PlanResult{Context: reply.Context}
	if (reply.Done != nil && *reply.Done) || (reply.IsDone != nil && *reply.IsDone) {
		result.Done = true
	}

	actions, err := collectActions(reply)
	if err != nil {
		return schemas.PlanResult{Malformed: true, Err: err, Context: reply.Context}
	}
	result.Actions = actions

	// An empty plan with no parse trouble means the oracle is finished even
	// if it forgot the done flag.
	if len(actions) == 0 {
		result.Done = true
	}
	return result
}

func collectActions(reply *oracleReply) ([]schemas.ActionDescriptor, error) {
	switch {
	case len(reply.Actions) > 0:
		out := make([]schemas.ActionDescriptor, 0, len(reply.Actions))
		for _, raw := range reply.Actions {
			action, sentinel, err := parseAction(raw)
			if err != nil {
				return nil, err
			}
			if sentinel {
				continue
			}
			out = append(out, action)
		}
		return out, nil

	case len(reply.Action) > 0:
		action, sentinel, err := parseAction(reply.Action)
		if err != nil {
			return nil, err
		}
		if sentinel {
			return nil, nil
		}
		return []schemas.ActionDescriptor{action}, nil

	case reply.Type != "":
		// Bare action object: fields at the top level.
		target, err := parseTarget(reply.Target)
		if err != nil {
			return nil, err
		}
		return []schemas.ActionDescriptor{{
			Type:            schemas.ActionType(strings.ToLower(reply.Type)),
			Target:          target,
			Value:           reply.Value,
			OccurrenceIndex: reply.OccurrenceIndex,
		}}, nil
	}
	return nil, nil
}

// parseAction decodes one action payload. The sentinel result is true for
// no-action markers like "none".
func parseAction(raw json.RawMessage) (schemas.ActionDescriptor, bool, error) {
	// A bare string is either a sentinel or garbage.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if noActionSentinels[strings.ToLower(strings.TrimSpace(s))] {
			return schemas.ActionDescriptor{}, true, nil
		}
		return schemas.ActionDescriptor{}, false, fmt.Errorf("unrecognized action string %q", s)
	}

	var ra rawAction
	if err := json.Unmarshal(raw, &ra); err != nil {
		return schemas.ActionDescriptor{}, false, fmt.Errorf("undecodable action object: %w", err)
	}

	verb := ra.Type
	if verb == "" {
		verb = ra.Action
	}
	verb = strings.ToLower(strings.TrimSpace(verb))
	if noActionSentinels[verb] {
		return schemas.ActionDescriptor{}, true, nil
	}

	target, err := parseTarget(ra.Target)
	if err != nil {
		return schemas.ActionDescriptor{}, false, err
	}
	if target.IsZero() && ra.Selector != "" {
		target = schemas.Locator{Selector: ra.Selector}
	}

	value := ra.Value
	if value == "" {
		value = ra.Text
	}

	return schemas.ActionDescriptor{
		Type:            schemas.ActionType(verb),
		Target:          target,
		Value:           value,
		OccurrenceIndex: ra.OccurrenceIndex,
	}, false, nil
}

// parseTarget accepts a locator object, or a bare string which is an element
// id when it looks like one and a selector otherwise.
func parseTarget(raw json.RawMessage) (schemas.Locator, error) {
	if len(raw) == 0 {
		return schemas.Locator{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "element_") {
			return schemas.Locator{ElementID: s}, nil
		}
		return schemas.Locator{Selector: s}, nil
	}

	var loc schemas.Locator
	if err := json.Unmarshal(raw, &loc); err != nil {
		return schemas.Locator{}, fmt.Errorf("undecodable target: %w", err)
	}
	return loc, nil
}
