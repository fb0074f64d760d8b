package collect

import (
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// candidateSchema constrains a single item of a model-generated payload.
// Unknown fields are tolerated; known fields must be well-typed.
const candidateSchema = `
#Candidate: {
	title:           string & =~"[^ \t\n]"
	content:         string & =~"[^ \t\n]"
	source_url?:     null | string
	published_date?: null | (string & =~"^[0-9]{4}-[0-9]{2}-[0-9]{2}")
	category?:       string
	classification?: "official" | "public"
	...
}
`

// payloadEnvelope is the top-level object the model is asked to return
type payloadEnvelope struct {
	Candidates []json.RawMessage `json:"candidates"`
}

// schemaChecker validates payload items against candidateSchema.
// A cue.Context is not safe for concurrent use, so one is built per payload.
type schemaChecker struct {
	def cue.Value
	ctx *cue.Context
}

func newSchemaChecker() (*schemaChecker, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(candidateSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling candidate schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Candidate"))
	if !def.Exists() {
		return nil, fmt.Errorf("candidate schema has no #Candidate definition")
	}
	return &schemaChecker{def: def, ctx: ctx}, nil
}

// check reports why raw does not satisfy the schema, or nil
func (s *schemaChecker) check(raw json.RawMessage) error {
	item := s.ctx.CompileBytes(raw)
	if err := item.Err(); err != nil {
		return fmt.Errorf("parsing item: %w", err)
	}
	if err := s.def.Unify(item).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// splitPayload decodes the envelope, tolerating a fenced code block
func splitPayload(content string) ([]json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var env payloadEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("decoding collector payload: %w", err)
	}
	return env.Candidates, nil
}
