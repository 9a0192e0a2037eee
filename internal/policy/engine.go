// Package policy evaluates story requests against a Rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document a story request is evaluated against.
type Input struct {
	CharacterName    string `json:"character_name"`
	AdditionalPrompt string `json:"additional_prompt"`
	Description      string `json:"description"`
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Decision != DecisionBlock
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.story_policy.decision"),
		rego.Module("story_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a story request. The policy returns either a bare
// decision string or an object {"decision": ..., "reason": ...}.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	doc := map[string]interface{}{
		"character_name":    input.CharacterName,
		"additional_prompt": input.AdditionalPrompt,
		"description":       input.Description,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return Decision{Decision: val}, nil
	case map[string]interface{}:
		d := Decision{Decision: DecisionAllow}
		if s, ok := val["decision"].(string); ok {
			d.Decision = s
		}
		if s, ok := val["reason"].(string); ok {
			d.Reason = s
		}
		return d, nil
	default:
		return Decision{}, fmt.Errorf("unexpected policy result type %T", val)
	}
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package story_policy

default decision = {"decision": "allow", "reason": ""}

blocked_themes = ["violence", "blood", "gore", "weapon", "horror", "kill"]

decision = {"decision": "block", "reason": "character name is required"} {
	trim_space(input.character_name) == ""
}

decision = {"decision": "block", "reason": "additional prompt is too long"} {
	trim_space(input.character_name) != ""
	count(input.additional_prompt) > 1000
}

request_text = lower(concat(" ", [input.character_name, input.additional_prompt, input.description]))

matched_themes = [theme | theme := blocked_themes[_]; regex.match(sprintf("\\b%s\\b", [theme]), request_text)]

decision = {"decision": "block", "reason": sprintf("theme %q is not suitable for children", [theme])} {
	trim_space(input.character_name) != ""
	count(input.additional_prompt) <= 1000
	count(matched_themes) > 0
	theme := matched_themes[0]
}
`
