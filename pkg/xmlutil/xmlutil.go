// Package xmlutil builds XML-delimited prompt sections from untrusted text.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape replaces characters with special meaning in XML so that complaint
// text cannot close or open tags in a prompt template. Invalid UTF-8
// and characters outside the XML range become U+FFFD.
func Escape(s string) string {
	var buf strings.Builder
	// strings.Builder never fails a write, so EscapeText cannot fail here.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Element renders <tag>escaped content</tag>. tag is trusted.
func Element(tag, content string) string {
	return "<" + tag + ">" + Escape(content) + "</" + tag + ">"
}
