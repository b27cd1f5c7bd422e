// Copyright 2024 The Cockroach Authors
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

package hybridmap

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is wrapped by every error AssertCorrectness
// returns, so callers can test for it with errors.Is regardless of which
// specific invariant failed.
var ErrInvariantViolation = errors.New("hybridmap: internal invariant violation")

// invariantError wraps ErrInvariantViolation with a message identifying
// which of I1-I10 (spec section 8) failed, and a debugString snapshot
// when verbosity > 0.
type invariantError struct {
	code string
	msg  string
	dump string
}

func (e *invariantError) Error() string {
	if e.dump == "" {
		return fmt.Sprintf("%s: %s", e.code, e.msg)
	}
	return fmt.Sprintf("%s: %s\n%s", e.code, e.msg, e.dump)
}

func (e *invariantError) Unwrap() error {
	return ErrInvariantViolation
}

func invariantf(code, dump, format string, args ...any) error {
	return &invariantError{code: code, msg: fmt.Sprintf(format, args...), dump: dump}
}
