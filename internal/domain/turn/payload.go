// Package turn processes one inbound detection turn end to end: payload
// validation, person resolution and merge, text sanitization, conversation
// memory, projection, and audit.
package turn

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Payload is the per-turn detection result produced by the upstream PII
// oracle. Its structure is validated against the schema below before any of
// it reaches the merge logic, so shape failures surface as a single
// MalformedDetection error instead of runtime type errors deep in the merge.
type Payload struct {
	SessionID    string               `json:"session_id,omitempty"`
	Persons      []identity.Detection `json:"persons"`
	ChatResponse string               `json:"chat_response,omitempty"`
	RawText      string               `json:"raw_text"`
}

// Top-level and per-person shapes are closed: an extra field in the payload
// is a detectable symptom of upstream prompt injection leaking structured
// data, so it fails validation rather than passing through silently.
const payloadSchema = `{
	"type": "object",
	"required": ["persons", "raw_text"],
	"additionalProperties": false,
	"properties": {
		"session_id": {"type": "string"},
		"raw_text": {"type": "string"},
		"chat_response": {"type": "string"},
		"persons": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["matched_name", "confidence"],
				"additionalProperties": false,
				"properties": {
					"matched_name": {"type": "string", "minLength": 1},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"aliases": {"type": "array", "items": {"type": "string"}},
					"emails": {"type": "array", "items": {"type": "string"}},
					"phones": {"type": "array", "items": {"type": "string"}},
					"addresses": {"type": "array", "items": {"type": "string"}},
					"ids": {"type": "array", "items": {"type": "string"}},
					"relationships": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["kind", "name"],
							"additionalProperties": false,
							"properties": {
								"kind": {"type": "string", "minLength": 1},
								"name": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`

var compiledSchema = jsonschema.MustCompileString("detection-payload.json", payloadSchema)

// ParsePayload validates raw against the detection payload schema and decodes
// it. Validation failures wrap ErrMalformedDetection.
func ParsePayload(raw []byte) (*Payload, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetection, err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetection, err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetection, err)
	}
	return &payload, nil
}

// GetSessionID is nil-safe so the malformed-payload path can echo a session
// id when parsing got far enough to know one.
func (p *Payload) GetSessionID() string {
	if p == nil {
		return ""
	}
	return p.SessionID
}

// Response is the outbound view of a processed turn. The field set is closed:
// no extra top-level fields may ever appear, since additional fields are a
// detectable symptom of upstream prompt injection leaking structured data.
type Response struct {
	Status        string                      `json:"status"`
	SanitizedText string                      `json:"sanitized_text"`
	SessionID     string                      `json:"session_id"`
	Persons       map[string]*identity.Person `json:"persons"`
	TokenMap      map[string]string           `json:"token_map"`
	PIIMapping    map[string]string           `json:"pii_mapping"`
	OriginalInput string                      `json:"original_input"`
	Timestamp     time.Time                   `json:"timestamp"`

	// Conversation mode only.
	ChatResponse       string `json:"chat_response,omitempty"`
	ConversationTurn   int    `json:"conversation_turn,omitempty"`
	ConversationLength int    `json:"conversation_length,omitempty"`
}

const (
	// StatusSuccess marks a fully processed turn.
	StatusSuccess = "success"
	// StatusError marks a turn recovered from a malformed payload: empty
	// persons, raw input preserved for diagnostics.
	StatusError = "error"
)
