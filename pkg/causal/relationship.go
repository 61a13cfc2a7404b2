// Package causal holds the causal-triple domain types and the strict parser
// for model-produced relationship lists.
package causal

import "strings"

// Polarity says whether a cause increases or decreases its effect.
// Raw model values are kept verbatim; use IsPositive to interpret them.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// IsPositive reports whether p is "positive", ignoring case. Every other
// value, including unknown ones, counts as negative.
func (p Polarity) IsPositive() bool {
	return strings.EqualFold(string(p), string(Positive))
}

// Relationship is a causal triple.
type Relationship struct {
	Cause    string   `json:"cause" yaml:"cause"`
	Effect   string   `json:"effect" yaml:"effect"`
	Polarity Polarity `json:"polarity" yaml:"polarity"`
}
