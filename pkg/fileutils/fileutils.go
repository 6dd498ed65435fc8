// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package fileutils holds small filesystem predicates used before reading
// key files and before overwriting GnuPG configuration the tool does not
// own.
package fileutils

import "os"

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
