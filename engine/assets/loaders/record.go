package loaders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

const recordField = "test_field"

var (
	// yaml.v3 only reports positions inside the message, e.g. "yaml: line 3: ...".
	syntaxLinePattern = regexp.MustCompile(`^line (\d+): `)
	fieldNamePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// Optional struct name followed by an opening parenthesis: `Record(` or `(`.
	structOpenPattern = regexp.MustCompile(`^\s*(?:[A-Za-z_][A-Za-z0-9_]*)?\s*\(`)
)

// RecordLoader turns object-notation documents into Records.
type RecordLoader struct{}

func (rl *RecordLoader) Extensions() []string {
	return []string{"test.ron"}
}

func (rl *RecordLoader) Load(ctx context.Context, r io.Reader, settings resources.Settings, lc *resources.LoadContext) (interface{}, error) {
	record, err := rl.LoadRecord(ctx, r)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (rl *RecordLoader) LoadRecord(ctx context.Context, r io.Reader) (*resources.Record, error) {
	b, err := ReadAll(ctx, r)
	if err != nil {
		return nil, err
	}
	return ParseRecord(b)
}

// ParseRecord decodes a whole buffer holding a single Record document.
// Accepted shapes:
//
//	test_field: "text"
//	{ test_field: "text" }
//	Record(test_field: "text")
//
// `//` and `/* */` comments may appear anywhere outside strings. Anything
// after the document, other than whitespace and comments, is an error.
func ParseRecord(b []byte) (*resources.Record, error) {
	src, err := blankComments(b)
	if err != nil {
		return nil, err
	}
	src = unwrapStruct(src)

	dec := yaml.NewDecoder(bytes.NewReader(src))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &resources.FormatError{Line: 1, Column: 1, Msg: "empty document"}
		}
		return nil, syntaxError(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &resources.FormatError{Line: 1, Column: 1, Msg: "empty document"}
	}
	if err := expectEnd(dec); err != nil {
		return nil, err
	}

	root := doc.Content[0]
	if err := checkNode(root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, &resources.FormatError{
			Line:   root.Line,
			Column: root.Column,
			Msg:    fmt.Sprintf("expected a struct with field `%s`, found %s", recordField, describeNode(root)),
		}
	}

	var value *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if !isFieldName(key) {
			return nil, &resources.FormatError{
				Line:   key.Line,
				Column: key.Column,
				Msg:    "field names must be plain identifiers",
			}
		}
		if key.Value != recordField {
			continue
		}
		if value != nil {
			return nil, &resources.FormatError{
				Line:   key.Line,
				Column: key.Column,
				Msg:    fmt.Sprintf("duplicate field `%s`", recordField),
			}
		}
		value = root.Content[i+1]
	}
	if value == nil {
		return nil, &resources.FormatError{
			Line:   root.Line,
			Column: root.Column,
			Msg:    fmt.Sprintf("missing field `%s`", recordField),
		}
	}
	if !isQuotedString(value) {
		return nil, &resources.FormatError{
			Line:   value.Line,
			Column: value.Column,
			Msg:    fmt.Sprintf("invalid type for field `%s`: expected a string, found %s", recordField, describeNode(value)),
		}
	}

	// The parser folds line breaks inside quoted scalars, so the text is
	// decoded again from the source bytes.
	off := offset(src, value.Line, value.Column)
	if off < 0 || src[off] != '"' {
		return resources.NewRecord(value.Value), nil
	}
	text, err := decodeQuoted(src, off)
	if err != nil {
		return nil, err
	}
	return resources.NewRecord(text), nil
}

// expectEnd fails unless the stream holds nothing after the first document.
func expectEnd(dec *yaml.Decoder) error {
	var extra yaml.Node
	err := dec.Decode(&extra)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return syntaxError(err)
	}
	at := &extra
	if len(extra.Content) > 0 {
		at = extra.Content[0]
	}
	return &resources.FormatError{
		Line:   at.Line,
		Column: at.Column,
		Msg:    "unexpected content after the document",
	}
}

// checkNode rejects parser features that have no object-notation equivalent.
func checkNode(n *yaml.Node) error {
	var msg string
	switch {
	case n.Kind == yaml.AliasNode:
		msg = "aliases are not supported"
	case n.Anchor != "":
		msg = "anchors are not supported"
	case n.Style&yaml.TaggedStyle != 0:
		msg = "tags are not supported"
	}
	if msg != "" {
		return &resources.FormatError{Line: n.Line, Column: n.Column, Msg: msg}
	}
	for _, child := range n.Content {
		if err := checkNode(child); err != nil {
			return err
		}
	}
	return nil
}

func isFieldName(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Style == 0 && fieldNamePattern.MatchString(n.Value)
}

func isQuotedString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode &&
		n.ShortTag() == "!!str" &&
		n.Style&yaml.DoubleQuotedStyle != 0
}

func describeNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a map"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.AliasNode:
		return "an alias"
	}
	switch n.ShortTag() {
	case "!!int":
		return "an integer"
	case "!!float":
		return "a float"
	case "!!bool":
		return "a boolean"
	case "!!null":
		return "unit"
	case "!!str":
		if n.Style&yaml.SingleQuotedStyle != 0 {
			return "a single-quoted string"
		}
		return fmt.Sprintf("the identifier %q", n.Value)
	}
	return n.ShortTag()
}

// unwrapStruct rewrites `Name( ... )` as `{ ... }` in place. Replacement is
// byte for byte so parser positions still point into the original input.
func unwrapStruct(b []byte) []byte {
	loc := structOpenPattern.FindIndex(b)
	if loc == nil {
		return b
	}
	open := loc[1] - 1
	end := len(bytes.TrimRightFunc(b, unicode.IsSpace)) - 1
	if end <= open || b[end] != ')' {
		return b
	}

	out := bytes.Clone(b)
	for i := loc[0]; i < open; i++ {
		if !unicode.IsSpace(rune(out[i])) {
			out[i] = ' '
		}
	}
	out[open] = '{'
	out[end] = '}'
	return out
}

func syntaxError(err error) error {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	line := 0
	if m := syntaxLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		msg = msg[len(m[0]):]
	}
	return &resources.FormatError{Line: line, Msg: msg, Err: err}
}
