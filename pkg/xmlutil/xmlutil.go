// Package xmlutil wraps untrusted text in XML elements for model prompts.
package xmlutil

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Escape returns s with XML special characters escaped. It fails on
// invalid UTF-8.
func Escape(s string) (string, error) {
	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", fmt.Errorf("xml escape: %w", err)
	}
	return buf.String(), nil
}

// Element renders <tag>s</tag> with s escaped, so the content cannot close
// the element or open a new one.
func Element(tag, s string) (string, error) {
	escaped, err := Escape(s)
	if err != nil {
		return "", err
	}
	return "<" + tag + ">" + escaped + "</" + tag + ">", nil
}
