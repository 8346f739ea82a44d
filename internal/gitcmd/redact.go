// SPDX-License-Identifier: MPL-2.0

package gitcmd

import (
	"net/url"
	"strings"
)

const redacted = "xxxxx"

// RedactURL hides the user info of a URL that embeds credentials.
// Anything that does not parse as such a URL is returned unchanged.
func RedactURL(raw string) string {
	if !strings.Contains(raw, "://") || !strings.Contains(raw, "@") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), redacted)
	} else {
		u.User = url.User(redacted)
	}
	return u.String()
}

// RedactArgs returns a copy of args with credential URLs redacted.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = RedactURL(arg)
	}
	return out
}
