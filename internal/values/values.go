// Package values consumes a scanner.Context's token stream and builds
// the plain Go value tree a configuration describes — the GROUP /
// ARRAY / LIST nesting the scanner itself treats as opaque punctuation.
// This sits just outside the core scanner (the scanner spec calls the
// AST/value-model builder an external collaborator), but it is the
// shortest path to exercising the full token surface end-to-end.
package values

import (
	"fmt"

	"github.com/libconfigo/lcfgscan/internal/scanner"
	"github.com/libconfigo/lcfgscan/internal/token"
)

// Builder walks one scanner.Context to completion, producing a
// map[string]any tree. It holds a single token of lookahead so each
// production can decide how to continue without re-pulling.
type Builder struct {
	ctx  *scanner.Context
	peek token.Token
	have bool
}

// NewBuilder wraps ctx. The Builder owns no resources of its own;
// closing ctx remains the caller's responsibility.
func NewBuilder(ctx *scanner.Context) *Builder {
	return &Builder{ctx: ctx}
}

// Build consumes the entire stream and returns the root group's
// contents as a map. It stops at the first ERROR or malformed-grammar
// token it encounters.
func (b *Builder) Build() (map[string]any, error) {
	root := map[string]any{}
	for {
		tok := b.next()
		if tok.Kind == token.EOF {
			return root, nil
		}
		if tok.Kind == token.Error {
			return nil, b.ctx.LastError()
		}
		if tok.Kind != token.Name {
			return nil, fmt.Errorf("line %d: expected a setting name, got %s", tok.Line, tok.Kind)
		}
		name := tok.NameVal

		if eq := b.next(); eq.Kind != token.Equals {
			return nil, fmt.Errorf("line %d: expected '=' after %q, got %s", eq.Line, name, eq.Kind)
		}

		val, err := b.value()
		if err != nil {
			return nil, err
		}
		root[name] = val

		if sep := b.peekTok(); sep.Kind == token.Semicolon || sep.Kind == token.Comma {
			b.next()
		}
	}
}

func (b *Builder) next() token.Token {
	if b.have {
		b.have = false
		return b.peek
	}
	return b.ctx.Pull()
}

func (b *Builder) peekTok() token.Token {
	if !b.have {
		b.peek = b.ctx.Pull()
		b.have = true
	}
	return b.peek
}

// value consumes one scalar, GROUP, ARRAY, or LIST production.
func (b *Builder) value() (any, error) {
	tok := b.next()
	switch tok.Kind {
	case token.Boolean:
		return tok.BoolVal, nil
	case token.String:
		return string(tok.Str), nil
	case token.Integer:
		return tok.Int32, nil
	case token.Integer64:
		return tok.Int64, nil
	case token.Hex:
		return tok.Int32, nil
	case token.Hex64:
		return tok.Uint64, nil
	case token.Float:
		return tok.Float64, nil
	case token.GroupStart:
		return b.group()
	case token.ArrayStart:
		return b.sequence(token.ArrayEnd)
	case token.ListStart:
		return b.sequence(token.ListEnd)
	case token.Error:
		return nil, b.ctx.LastError()
	default:
		return nil, fmt.Errorf("line %d: unexpected token %s in value position", tok.Line, tok.Kind)
	}
}

// group consumes a `{ name = value; ... }` block, already past the
// opening brace.
func (b *Builder) group() (map[string]any, error) {
	out := map[string]any{}
	for {
		tok := b.peekTok()
		if tok.Kind == token.GroupEnd {
			b.next()
			return out, nil
		}
		if tok.Kind == token.Error {
			b.next()
			return nil, b.ctx.LastError()
		}
		if tok.Kind != token.Name {
			return nil, fmt.Errorf("line %d: expected a setting name inside group, got %s", tok.Line, tok.Kind)
		}
		b.next()
		name := tok.NameVal

		if eq := b.next(); eq.Kind != token.Equals {
			return nil, fmt.Errorf("line %d: expected '=' after %q, got %s", eq.Line, name, eq.Kind)
		}
		val, err := b.value()
		if err != nil {
			return nil, err
		}
		out[name] = val

		if sep := b.peekTok(); sep.Kind == token.Semicolon || sep.Kind == token.Comma {
			b.next()
		}
	}
}

// sequence consumes comma-separated values up to and including end
// (ARRAY_END or LIST_END), already past the opening delimiter.
func (b *Builder) sequence(end token.Kind) ([]any, error) {
	var out []any
	for {
		if tok := b.peekTok(); tok.Kind == end {
			b.next()
			return out, nil
		}
		val, err := b.value()
		if err != nil {
			return nil, err
		}
		out = append(out, val)

		sep := b.peekTok()
		if sep.Kind == token.Comma {
			b.next()
			continue
		}
		if sep.Kind == end {
			b.next()
			return out, nil
		}
		return nil, fmt.Errorf("line %d: expected ',' or closing delimiter, got %s", sep.Line, sep.Kind)
	}
}
