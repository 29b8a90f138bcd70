package domain

import (
	"fmt"
	"time"
)

// RetentionType tags a retention policy variant.
type RetentionType string

const (
	RetentionRetain  RetentionType = "retain"
	RetentionExpire  RetentionType = "expire"
	RetentionExplode RetentionType = "explode"
	RetentionInherit RetentionType = "inherit"
)

// RetentionScope is the granularity a policy applies at. Inherit is only
// meaningful at channel granularity.
type RetentionScope int

const (
	RetentionScopeTeam RetentionScope = iota
	RetentionScopeChannel
)

// RetentionPolicy is the decoded, local form of a retention policy. Age is
// set only for expire and explode.
type RetentionPolicy struct {
	Type RetentionType `json:"type"`
	Age  time.Duration `json:"age,omitempty"`
}

// RawRetentionPolicy is the tagged wire form reported by the server.
type RawRetentionPolicy struct {
	Typ        string `json:"typ"`
	AgeSeconds int64  `json:"age,omitempty"`
}

// DecodeRetention turns the wire form into a RetentionPolicy. Unknown tags
// fail closed, and inherit at team scope is a decode error rather than a
// valid state.
func DecodeRetention(raw RawRetentionPolicy, scope RetentionScope) (RetentionPolicy, error) {
	switch RetentionType(raw.Typ) {
	case RetentionRetain:
		return RetentionPolicy{Type: RetentionRetain}, nil
	case RetentionExpire, RetentionExplode:
		if raw.AgeSeconds <= 0 {
			return RetentionPolicy{}, fmt.Errorf("retention %q requires a positive age, got %d", raw.Typ, raw.AgeSeconds)
		}
		return RetentionPolicy{
			Type: RetentionType(raw.Typ),
			Age:  time.Duration(raw.AgeSeconds) * time.Second,
		}, nil
	case RetentionInherit:
		if scope == RetentionScopeTeam {
			return RetentionPolicy{}, fmt.Errorf("retention inherit is not valid at team scope")
		}
		return RetentionPolicy{Type: RetentionInherit}, nil
	}
	return RetentionPolicy{}, fmt.Errorf("unknown retention type %q", raw.Typ)
}
