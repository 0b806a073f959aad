// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package telnet

import "bytes"

// Telnet command bytes.
const (
	iac  = 255
	dont = 254
	will = 251
	sb   = 250
	se   = 240
)

// StripControl removes telnet negotiation, carriage returns and NUL bytes
// from one input line.
func StripControl(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != iac {
			if c != '\r' && c != 0 {
				out = append(out, c)
			}
			continue
		}
		if i+1 >= len(b) {
			break
		}
		switch cmd := b[i+1]; {
		case cmd >= will && cmd <= dont:
			i += 2 // command and option
		case cmd == sb:
			end := bytes.Index(b[i+2:], []byte{iac, se})
			if end < 0 {
				return string(out)
			}
			i += 2 + end + 1
		default:
			i++
		}
	}
	return string(out)
}
