package causal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed wraps every rejection from ParseRelationships.
var ErrMalformed = errors.New("malformed relationship list")

// envelope is the only accepted shape:
//
//	{"relationships": [["cause", "effect", "positive"], ...]}
type envelope struct {
	Relationships *[]json.RawMessage `json:"relationships"`
}

// ParseRelationships decodes the constrained serialization the extractor
// asks the model for. The text is only ever decoded as JSON, never
// evaluated. One surrounding Markdown code fence is tolerated.
func ParseRelationships(raw string) ([]Relationship, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformed)
	}
	if env.Relationships == nil {
		return nil, fmt.Errorf("%w: missing \"relationships\" field", ErrMalformed)
	}

	out := make([]Relationship, 0, len(*env.Relationships))
	for i, item := range *env.Relationships {
		rel, err := parseTriple(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformed, i, err)
		}
		out = append(out, rel)
	}
	return out, nil
}

func parseTriple(item json.RawMessage) (Relationship, error) {
	if t := bytes.TrimSpace(item); len(t) == 0 || t[0] != '[' {
		return Relationship{}, errors.New("expected a 3-element array")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(item, &parts); err != nil {
		return Relationship{}, err
	}
	if len(parts) != 3 {
		return Relationship{}, fmt.Errorf("expected 3 elements, got %d", len(parts))
	}
	var fields [3]string
	for i, p := range parts {
		if t := bytes.TrimSpace(p); len(t) == 0 || t[0] != '"' {
			return Relationship{}, fmt.Errorf("element %d is not a string", i)
		}
		if err := json.Unmarshal(p, &fields[i]); err != nil {
			return Relationship{}, fmt.Errorf("element %d: %v", i, err)
		}
	}
	cause, effect := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
	if cause == "" || effect == "" {
		return Relationship{}, errors.New("cause and effect must be non-empty")
	}
	return Relationship{
		Cause:    cause,
		Effect:   effect,
		Polarity: Polarity(strings.TrimSpace(fields[2])),
	}, nil
}

// stripFence removes a single ```lang ... ``` wrapper if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	// Drop the info string ("json") on the opening line.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		inner = inner[nl+1:]
	} else {
		return s
	}
	return strings.TrimSpace(inner)
}
