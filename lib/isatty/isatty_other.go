// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build !linux

package isatty

import "os"

func isTerminal(*os.File) bool {
	return false
}
