// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package core contains the event bus and the identifiers shared by every
// part of the station simulation.
package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Payload carries the keyword arguments of an event.
type Payload map[string]any

// Event is something that happened in the station. Events are ephemeral.
type Event struct {
	ID        ulid.ULID
	Topic     Topic
	Timestamp time.Time
	Payload   Payload
}

// String returns the payload value for key, or "" when absent.
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns a string slice value. A nil value yields nil, which
// subscribers treat as "all".
func (p Payload) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			out = append(out, fmt.Sprint(s))
		}
		return out
	default:
		return nil
	}
}

// Float returns a numeric value as float64.
func (p Payload) Float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Int returns a numeric value as int.
func (p Payload) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns a boolean value.
func (p Payload) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// Has reports whether key is present, even with a nil value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}
