// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpg

import (
	"fmt"
	"strings"
)

// parseInfo extracts version details from `gpg --version` output, which
// looks like:
//
//	gpg (GnuPG) 2.4.4
//	libgcrypt 1.10.3
//	...
//	Home: /home/ci/.gnupg
func parseInfo(output string) (*Info, error) {
	var info Info

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "gpg (GnuPG") && info.Version == "":
			fields := strings.Fields(line)
			info.Version = fields[len(fields)-1]
		case strings.HasPrefix(line, "libgcrypt ") && info.Libgcrypt == "":
			info.Libgcrypt = strings.TrimPrefix(line, "libgcrypt ")
		case strings.HasPrefix(line, "Home: "):
			info.HomeDir = strings.TrimPrefix(line, "Home: ")
		}
	}

	if info.Version == "" {
		return nil, fmt.Errorf("%w: unrecognized --version output", ErrNoGnuPG)
	}

	return &info, nil
}

// String renders the detection summary shown in the import report.
func (i *Info) String() string {
	return fmt.Sprintf("version: %s (libgcrypt: %s)\nhomedir: %s", i.Version, i.Libgcrypt, i.HomeDir)
}
