// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build unix

package fileutils

import "golang.org/x/sys/unix"

// IsWritable reports whether the current process may write to path.
func IsWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
