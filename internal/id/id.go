// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package id generates opaque identifiers for records that are not keyed by
// a database sequence, such as audit events.
package id

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID (RFC 9562 version 7) as a string.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
