// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build windows

package fileutils

import "os"

// IsWritable reports whether the current process may write to path. On
// Windows only the read-only attribute can be checked without opening the
// file.
func IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().Perm()&0o200 != 0
}
