// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package urlpath detects and fills named placeholders in URL templates.
//
// Two placeholder styles are recognised: a colon prefixed segment name
// (/users/:id) and a brace delimited name (/users/{id}). A colon style
// placeholder must start the template or directly follow a slash, which
// keeps ports and userinfo from being mistaken for placeholders.
package urlpath

import (
	"fmt"
	"net/url"
	"regexp"
)

var placeholder = regexp.MustCompile(`(^|/):([A-Za-z_][A-Za-z0-9_]*)|\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// HasParams reports whether tmpl contains at least one placeholder.
func HasParams(tmpl string) bool {
	return placeholder.MatchString(tmpl)
}

// Names returns the placeholder names of tmpl in order of appearance.
func Names(tmpl string) []string {
	matches := placeholder.FindAllStringSubmatch(tmpl, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, nameOf(m))
	}
	return names
}

// LookupFunc returns the value for a placeholder name.
type LookupFunc func(name string) (any, bool)

// Substitute replaces every placeholder of tmpl for which lookup returns a
// non-nil value. Values are formatted with fmt and path escaped. Placeholders
// without a value are left untouched.
func Substitute(tmpl string, lookup LookupFunc) string {
	if lookup == nil {
		return tmpl
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		m := placeholder.FindStringSubmatch(match)
		v, ok := lookup(nameOf(m))
		if !ok || v == nil {
			return match
		}
		return m[1] + url.PathEscape(fmt.Sprint(v))
	})
}

func nameOf(submatch []string) string {
	if submatch[2] != "" {
		return submatch[2]
	}
	return submatch[3]
}
