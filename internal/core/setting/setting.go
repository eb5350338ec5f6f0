// Copyright (c) 2026 Exvault. All rights reserved.

package setting

import "time"

// Setting is a single application-level key/value pair.
//
// The value is stored as-is; for the AI credential it must remain
// recoverable because every extraction call replays it to the upstream API.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
