package oracle

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed given_names.txt
var builtinNames string

// NameList is a fixed set of given names compared case-insensitively.
type NameList struct {
	names map[string]struct{}
}

// NewNameList builds a list from names.
func NewNameList(names []string) *NameList {
	l := &NameList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			l.names[strings.ToLower(n)] = struct{}{}
		}
	}
	return l
}

// DefaultNameList returns the built-in list of common given names.
func DefaultNameList() *NameList {
	l, _ := ReadNameList(strings.NewReader(builtinNames))
	return l
}

// ReadNameList reads one name per line; blank lines and lines starting with
// '#' are ignored.
func ReadNameList(r io.Reader) (*NameList, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading name list: %w", err)
	}
	return NewNameList(names), nil
}

// LoadNameList reads a name list file.
func LoadNameList(path string) (*NameList, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("opening name list: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadNameList(f)
}

// Len returns the number of distinct names.
func (l *NameList) Len() int { return len(l.names) }

// Lookup implements Lookup.
func (l *NameList) Lookup(_ context.Context, token string) (bool, error) {
	_, ok := l.names[strings.ToLower(token)]
	return ok, nil
}
