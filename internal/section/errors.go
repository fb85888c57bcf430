package section

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownType   = errors.New("unknown item type")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidPath   = errors.New("invalid path")
	ErrSlugCollision = errors.New("slug collision")
	ErrEnumerate     = errors.New("enumerating files")
)

// ConfigError reports a problem with one authored item. Position locates the
// item in the tree, e.g. "items[2].items[0]".
type ConfigError struct {
	Position string
	Title    string
	Path     string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	b.WriteString(e.Position)
	if e.Title != "" {
		fmt.Fprintf(&b, " (title %q)", e.Title)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (path %q)", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func itemError(pos string, item ItemConfig, err error) *ConfigError {
	return &ConfigError{Position: pos, Title: item.Title, Path: item.Path, Err: err}
}

func missing(field string, typ ItemType) error {
	return fmt.Errorf("%w %q for %s item", ErrMissingField, field, typ)
}
