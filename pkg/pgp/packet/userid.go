// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet

import "strings"

// UserID is a decoded user id packet: the free-form identity text plus the
// conventional "Name (Comment) <email>" split.
type UserID struct {
	Text  string
	Name  string
	Email string
}

func (*UserID) packet() {}

func parseUserID(body []byte) *UserID {
	uid := &UserID{Text: string(body)}
	uid.Name, uid.Email = splitUserID(uid.Text)

	return uid
}

// splitUserID extracts the name and email from a conventional user id.
// Inputs that do not follow the convention keep the whole text as the name.
func splitUserID(text string) (name, email string) {
	name = text

	if open := strings.LastIndexByte(text, '<'); open >= 0 {
		if end := strings.IndexByte(text[open:], '>'); end > 0 {
			email = text[open+1 : open+end]
			name = text[:open]
		}
	}

	if open := strings.IndexByte(name, '('); open >= 0 {
		name = name[:open]
	}

	return strings.TrimSpace(name), email
}
