// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isatty

import "os"

// IsTerminal returns whether stdout is attached to a terminal.
func IsTerminal() bool {
	return isTerminal(os.Stdout)
}
