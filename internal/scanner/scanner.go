// Package scanner implements the mode-switching lexer at the heart of
// this module: it turns the byte stream of one or more configuration
// files, threaded through an include stack, into the typed token
// stream an external grammar parser consumes.
package scanner

import (
	"errors"
	"os"

	"github.com/libconfigo/lcfgscan/internal/cfgerr"
	"github.com/libconfigo/lcfgscan/internal/diag"
	"github.com/libconfigo/lcfgscan/internal/include"
	"github.com/libconfigo/lcfgscan/internal/security"
	"github.com/libconfigo/lcfgscan/internal/token"
)

// Mode is the scanner's exclusive lexer state. Only INITIAL is driven
// directly from Pull's outer loop; the other modes are each resolved
// start-to-finish by a single helper once entered, since none of them
// can straddle an include-frame boundary mid-lexeme (a push only ever
// happens at the closing quote of an include directive, never in the
// middle of reading one).
type Mode uint8

const (
	modeInitial Mode = iota
	modeComment
	modeString
	modeIncludeF
	modeIncludeD
)

// Context is a single, independent scanner instance. Nothing here is
// shared across Contexts, so two may run concurrently (§5 of the
// scanner spec).
type Context struct {
	stack *include.Stack
	acc   *accumulator

	mode        Mode
	atLineStart bool

	// nameBuf and digitBuf are scratch run buffers reused across NAME
	// and numeric lexemes, kept separate from the STRING/include-path
	// accumulator per the invariant that the accumulator is only ever
	// non-empty inside STRING/INCLUDE_F/INCLUDE_D.
	nameBuf  []byte
	digitBuf []byte

	lastErr error
	log     *diag.Logger

	// visited records every absolute path this Context has ever opened
	// as an include frame, root included. A watch-mode caller reads
	// this after a scan to know what to re-arm file watches on.
	visited map[string]struct{}
}

// New opens path as the root include frame and returns a ready Context.
// The caller owns nothing past this call; Close releases every frame
// this Context ever opens, including ones pushed by @include.
func New(path string) (*Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := include.NewRoot(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	c := &Context{
		stack:       st,
		acc:         newAccumulator(),
		mode:        modeInitial,
		atLineStart: true,
		visited:     map[string]struct{}{},
	}
	c.visited[st.Top().Path()] = struct{}{}
	return c, nil
}

// VisitedPaths returns every absolute path this Context has opened as
// an include frame so far, in no particular order. Intended for a
// watch-mode caller deciding what to re-arm file watches on after a
// scan completes.
func (c *Context) VisitedPaths() []string {
	out := make([]string, 0, len(c.visited))
	for p := range c.visited {
		out = append(out, p)
	}
	return out
}

// WithValidator wires a binary-content guard into every @include /
// @include_dir target this Context resolves. Nil disables the check.
func (c *Context) WithValidator(v *security.Validator) *Context {
	c.stack.Validator = v
	return c
}

// WithExcludeGlobs narrows which files an @include_dir expansion
// admits, on top of dirwalk's baseline dotfile/regular-file rule.
func (c *Context) WithExcludeGlobs(globs []string) *Context {
	c.stack.ExcludeGlobs = globs
	return c
}

// WithLogger attaches scan-event logging (push/pop/error); nil (the
// zero value) leaves logging off.
func (c *Context) WithLogger(l *diag.Logger) *Context {
	c.log = l
	return c
}

// WithMaxIncludeDepth caps the number of simultaneously open include
// frames. Zero (the default) leaves it unbounded.
func (c *Context) WithMaxIncludeDepth(n int) *Context {
	c.stack.MaxDepth = n
	return c
}

// LastError returns the structured error behind the most recently
// emitted ERROR token (§6: "the context exposes {error_text,
// error_file, error_line}"). It is meaningless after any other Kind.
func (c *Context) LastError() error {
	return c.lastErr
}

// Close releases every open frame. Safe to call more than once.
func (c *Context) Close() error {
	if c.stack != nil {
		c.stack.Close()
	}
	return nil
}

// Pull returns the next token in the stream, or a Kind-EOF token once
// every include frame has been exhausted.
func (c *Context) Pull() token.Token {
	for {
		tok, produced := c.lexInitial()
		if produced {
			return tok
		}

		poppedPath := c.stack.Top().Path()
		terminated, err := c.stack.HandleEOF()
		if err != nil {
			c.lastErr = err
			c.log.Error(err)
			line, path := c.errPos(err)
			return token.Token{Kind: token.Error, Line: line, Path: path}
		}
		c.log.Popped(poppedPath)
		if terminated {
			return token.Token{Kind: token.EOF}
		}
		if top := c.stack.Top(); top != nil {
			c.visited[top.Path()] = struct{}{}
		}
		c.atLineStart = true
	}
}

func (c *Context) errPos(err error) (int, string) {
	var scanErr *cfgerr.ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Line, scanErr.File
	}
	if top := c.stack.Top(); top != nil {
		return top.Line(), top.Path()
	}
	return 0, ""
}

// --- low-level read/peek helpers over the active frame ---

func (c *Context) peek() (byte, bool) {
	top := c.stack.Top()
	buf, err := top.Peek(1)
	if len(buf) == 0 {
		_ = err
		return 0, false
	}
	return buf[0], true
}

func (c *Context) peek2() (byte, bool) {
	top := c.stack.Top()
	buf, _ := top.Peek(2)
	if len(buf) < 2 {
		return 0, false
	}
	return buf[1], true
}

func (c *Context) consume() byte {
	top := c.stack.Top()
	b, err := top.ReadByte()
	if err != nil {
		return 0
	}
	return b
}

// matchDirectivePrefix reports whether the active frame's unread input
// begins with word, followed by a nonzero run of spaces/tabs, followed
// by the opening '"'. On match it returns the number of bytes to
// discard to land the reader just past that quote; it consumes nothing
// on a non-match, so a failed directive attempt falls through to
// ordinary token decomposition rather than eating input speculatively.
func (c *Context) matchDirectivePrefix(word string) (int, bool) {
	const maxLookahead = 4096
	top := c.stack.Top()
	buf, _ := top.Peek(maxLookahead)
	if len(buf) < len(word) || string(buf[:len(word)]) != word {
		return 0, false
	}
	i := len(word)
	spaces := 0
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t') {
		i++
		spaces++
	}
	if spaces == 0 || i >= len(buf) || buf[i] != '"' {
		return 0, false
	}
	return i + 1, true
}

// --- INITIAL mode ---

// lexInitial returns the next token, or (zero, false) if the active
// frame ran out of input before a token could start — the caller then
// hands control to the include stack's EOF handling.
func (c *Context) lexInitial() (token.Token, bool) {
	for {
		top := c.stack.Top()
		b, ok := c.peek()
		if !ok {
			return token.Token{}, false
		}

		switch b {
		case ' ', '\t':
			c.consume()
			continue
		case '\n':
			c.consume()
			c.atLineStart = true
			continue
		case '\r', '\f':
			c.consume()
			continue
		case '#':
			c.consume()
			c.consumeLineComment()
			c.atLineStart = false
			continue
		case '/':
			if nb, ok := c.peek2(); ok && nb == '/' {
				c.consume()
				c.consume()
				c.consumeLineComment()
				c.atLineStart = false
				continue
			}
			if nb, ok := c.peek2(); ok && nb == '*' {
				c.consume()
				c.consume()
				c.mode = modeComment
				if tok, produced := c.runComment(); produced {
					c.mode = modeInitial
					return tok, true
				}
				c.mode = modeInitial
				c.atLineStart = false
				continue
			}
			c.consume()
			c.atLineStart = false
			return token.Token{Kind: token.Garbage, Line: top.Line(), Path: top.Path(), Garbage: '/'}, true
		case '"':
			c.consume()
			c.acc.reset()
			c.mode = modeString
			tok := c.runString()
			c.mode = modeInitial
			c.atLineStart = false
			return tok, true
		case '@':
			if c.atLineStart {
				if n, ok := c.matchDirectivePrefix("@include_dir"); ok {
					top.Discard(n)
					c.acc.reset()
					c.mode = modeIncludeD
					if tok, produced := c.runIncludePath(true); produced {
						c.mode = modeInitial
						c.atLineStart = false
						return tok, true
					}
					c.mode = modeInitial
					c.atLineStart = false
					continue
				}
				if n, ok := c.matchDirectivePrefix("@include"); ok {
					top.Discard(n)
					c.acc.reset()
					c.mode = modeIncludeF
					if tok, produced := c.runIncludePath(false); produced {
						c.mode = modeInitial
						c.atLineStart = false
						return tok, true
					}
					c.mode = modeInitial
					c.atLineStart = false
					continue
				}
			}
			c.consume()
			c.atLineStart = false
			return token.Token{Kind: token.Garbage, Line: top.Line(), Path: top.Path(), Garbage: '@'}, true
		case '=', ':':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.Equals, top.Line(), top.Path()), true
		case ',':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.Comma, top.Line(), top.Path()), true
		case ';':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.Semicolon, top.Line(), top.Path()), true
		case '{':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.GroupStart, top.Line(), top.Path()), true
		case '}':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.GroupEnd, top.Line(), top.Path()), true
		case '[':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.ArrayStart, top.Line(), top.Path()), true
		case ']':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.ArrayEnd, top.Line(), top.Path()), true
		case '(':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.ListStart, top.Line(), top.Path()), true
		case ')':
			c.consume()
			c.atLineStart = false
			return token.Punct(token.ListEnd, top.Line(), top.Path()), true
		default:
			c.atLineStart = false
			if isNameStart(b) {
				return c.lexNameOrBool(), true
			}
			if isDigit(b) || b == '.' {
				return c.lexNumber(), true
			}
			if b == '+' || b == '-' {
				if nb, ok := c.peek2(); ok && (isDigit(nb) || nb == '.') {
					return c.lexNumber(), true
				}
			}
			line, path := top.Line(), top.Path()
			c.consume()
			return token.Token{Kind: token.Garbage, Line: line, Path: path, Garbage: b}, true
		}
	}
}

// consumeLineComment discards bytes through end-of-line (or EOF); the
// terminating '\n', if any, is left unconsumed so the INITIAL loop's
// own newline handling advances the line counter exactly once.
func (c *Context) consumeLineComment() {
	for {
		b, ok := c.peek()
		if !ok || b == '\n' {
			return
		}
		c.consume()
	}
}

// runComment consumes a block comment body after the opening "/*" has
// already been consumed by the caller. An EOF before the closing "*/"
// is an unterminated-comment error (§7).
func (c *Context) runComment() (token.Token, bool) {
	top := c.stack.Top()
	startLine, startPath := top.Line(), top.Path()
	for {
		b, ok := c.peek()
		if !ok {
			scanErr := cfgerr.New(cfgerr.KindUnterminated, startPath, startLine, errors.New("unterminated block comment"))
			c.lastErr = scanErr
			return token.Token{Kind: token.Error, Line: startLine, Path: startPath}, true
		}
		if b == '*' {
			if nb, ok2 := c.peek2(); ok2 && nb == '/' {
				c.consume()
				c.consume()
				return token.Token{}, false
			}
		}
		c.consume()
	}
}

// --- STRING mode ---

// runString consumes a quoted string body after the opening '"' has
// already been consumed and the accumulator cleared by the caller.
func (c *Context) runString() token.Token {
	top := c.stack.Top()
	startLine, startPath := top.Line(), top.Path()
	for {
		b, ok := c.peek()
		if !ok {
			return c.unterminated(cfgerr.KindUnterminated, startLine, startPath, "unterminated string literal")
		}
		switch b {
		case '"':
			c.consume()
			payload := c.acc.take()
			return token.Token{Kind: token.String, Line: startLine, Path: startPath, Str: payload}
		case '\\':
			if !c.consumeStringEscape() {
				return c.unterminated(cfgerr.KindUnterminated, startLine, startPath, "unterminated string literal")
			}
		default:
			c.consume()
			c.acc.appendByte(b)
		}
	}
}

// consumeStringEscape handles one '\'-prefixed fragment for STRING
// mode, including the control-byte and \xHH forms COMMENT/INCLUDE_F/D
// don't recognize. Returns false only on EOF immediately after the
// backslash.
func (c *Context) consumeStringEscape() bool {
	c.consume() // '\\'
	b, ok := c.peek()
	if !ok {
		return false
	}
	switch b {
	case 'n':
		c.consume()
		c.acc.appendByte('\n')
	case 'r':
		c.consume()
		c.acc.appendByte('\r')
	case 't':
		c.consume()
		c.acc.appendByte('\t')
	case 'f':
		c.consume()
		c.acc.appendByte('\f')
	case '\\':
		c.consume()
		c.acc.appendByte('\\')
	case '"':
		c.consume()
		c.acc.appendByte('"')
	case 'x', 'X':
		if !c.tryHexEscape() {
			c.acc.appendByte('\\')
		}
	default:
		c.acc.appendByte('\\')
	}
	return true
}

// tryHexEscape attempts to consume "xHH" (the 'x'/'X' itself, plus two
// hex digits) after a backslash already seen by the caller. On success
// it appends the decoded byte and returns true; on failure it consumes
// nothing so the caller can fall back to a literal backslash.
func (c *Context) tryHexEscape() bool {
	top := c.stack.Top()
	buf, _ := top.Peek(3)
	if len(buf) < 3 {
		return false
	}
	hi, ok1 := hexNibble(buf[1])
	lo, ok2 := hexNibble(buf[2])
	if !ok1 || !ok2 {
		return false
	}
	top.Discard(3)
	c.acc.appendByte(hi<<4 | lo)
	return true
}

func (c *Context) unterminated(kind cfgerr.Kind, line int, path, msg string) token.Token {
	c.acc.reset()
	c.lastErr = cfgerr.New(kind, path, line, errors.New(msg))
	return token.Token{Kind: token.Error, Line: line, Path: path}
}

// --- INCLUDE_F / INCLUDE_D mode ---

// runIncludePath consumes a directive's quoted PATH (the opening '"'
// already consumed by matchDirectivePrefix), resolving only `\\` and
// `\"` escapes per the bit-exact directive grammar in §6 — no control
// escapes, no \xHH, unlike STRING. On the closing '"' it pushes the
// include (file or, when isDir, directory expansion); (zero, false) on
// success means "no token, resume INITIAL on whatever frame is now on
// top", matching the directive's "consumes input, produces no token"
// contract.
func (c *Context) runIncludePath(isDir bool) (token.Token, bool) {
	top := c.stack.Top()
	startLine, startPath := top.Line(), top.Path()
	directive := "include"
	kind := cfgerr.KindInclude
	if isDir {
		directive = "include_dir"
		kind = cfgerr.KindDirectory
	}

	for {
		b, ok := c.peek()
		if !ok {
			c.acc.reset()
			c.lastErr = cfgerr.New(cfgerr.KindUnterminated, startPath, startLine, errors.New("unterminated include path"))
			return token.Token{Kind: token.Error, Line: startLine, Path: startPath}, true
		}
		switch b {
		case '"':
			c.consume()
			raw := c.acc.str()
			c.acc.reset()
			return c.pushInclude(isDir, raw, startLine, startPath, directive, kind)
		case '\\':
			c.consume()
			nb, ok := c.peek()
			if !ok {
				c.acc.reset()
				c.lastErr = cfgerr.New(cfgerr.KindUnterminated, startPath, startLine, errors.New("unterminated include path"))
				return token.Token{Kind: token.Error, Line: startLine, Path: startPath}, true
			}
			switch nb {
			case '\\':
				c.consume()
				c.acc.appendByte('\\')
			case '"':
				c.consume()
				c.acc.appendByte('"')
			default:
				c.acc.appendByte('\\')
			}
		default:
			c.consume()
			c.acc.appendByte(b)
		}
	}
}

func (c *Context) pushInclude(isDir bool, raw string, line int, path, directive string, kind cfgerr.Kind) (token.Token, bool) {
	var err error
	if isDir {
		err = c.stack.PushDir(raw)
	} else {
		err = c.stack.Push(raw, nil)
	}
	if err != nil {
		stamped := stampKind(err, kind, path, line)
		c.lastErr = stamped
		c.log.Error(stamped)
		return token.Token{Kind: token.Error, Line: line, Path: path}, true
	}
	top := c.stack.Top().Path()
	c.visited[top] = struct{}{}
	c.log.Pushed(top)
	return token.Token{}, false
}

// stampKind returns the include stack's typed errors (CycleError,
// IncludeError, DirectoryError) unchanged and wraps any other error in
// a ScanError of the given Kind, without losing the original message.
func stampKind(err error, kind cfgerr.Kind, path string, line int) error {
	switch err.(type) {
	case *cfgerr.CycleError, *cfgerr.IncludeError, *cfgerr.DirectoryError:
		return err
	default:
		return cfgerr.New(kind, path, line, err)
	}
}

// --- NAME / BOOLEAN ---

func isNameStart(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '*'
}

func isNameContinue(b byte) bool {
	return isNameStart(b) || isDigit(b) || b == '-' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// lexNameOrBool consumes [A-Za-z*][-A-Za-z0-9_*]* and classifies it as
// BOOLEAN when it case-insensitively equals "true"/"false", else NAME.
// The NAME payload is a string copied out of the scanner's match buffer
// on emit, so it stays valid after later Pulls.
func (c *Context) lexNameOrBool() token.Token {
	top := c.stack.Top()
	line, path := top.Line(), top.Path()

	c.nameBuf = c.nameBuf[:0]
	for {
		b, ok := c.peek()
		if !ok || !isNameContinue(b) {
			break
		}
		c.consume()
		c.nameBuf = append(c.nameBuf, b)
	}

	if eqFold(c.nameBuf, "true") {
		return token.Token{Kind: token.Boolean, Line: line, Path: path, BoolVal: true}
	}
	if eqFold(c.nameBuf, "false") {
		return token.Token{Kind: token.Boolean, Line: line, Path: path, BoolVal: false}
	}
	return token.Token{Kind: token.Name, Line: line, Path: path, NameVal: string(c.nameBuf)}
}

func eqFold(buf []byte, want string) bool {
	if len(buf) != len(want) {
		return false
	}
	for i := range buf {
		bb, wb := buf[i], want[i]
		if bb >= 'A' && bb <= 'Z' {
			bb += 'a' - 'A'
		}
		if bb != wb {
			return false
		}
	}
	return true
}

// --- numeric literals ---

// lexNumber consumes one of FLOAT, INTEGER64, HEX64, HEX, or INTEGER
// (§4.1, in that priority order for matches of equal length) starting
// at the current byte, which the caller has already confirmed is a
// sign, digit, or '.'.
func (c *Context) lexNumber() token.Token {
	top := c.stack.Top()
	line, path := top.Line(), top.Path()

	negative := false
	if b, ok := c.peek(); ok && (b == '+' || b == '-') {
		negative = b == '-'
		c.consume()
	}

	if b, ok := c.peek(); ok && b == '0' {
		if nb, ok2 := c.peek2(); ok2 && (nb == 'x' || nb == 'X') {
			if tok, ok3 := c.lexHexLiteral(negative, line, path); ok3 {
				return tok
			}
		}
	}

	return c.lexDecimalLiteral(negative, line, path)
}

// lexHexLiteral handles the 0x/0X-prefixed forms. It only commits to
// hex parsing once it has confirmed at least one hex digit follows the
// prefix; otherwise it returns ok=false having consumed nothing, so the
// caller falls back to decimal parsing of the lone leading '0'.
func (c *Context) lexHexLiteral(negative bool, line int, path string) (token.Token, bool) {
	top := c.stack.Top()
	buf, _ := top.Peek(2)
	if len(buf) < 2 {
		return token.Token{}, false
	}
	i := 2
	digitsBuf, _ := top.Peek(64)
	for i < len(digitsBuf) && isHexDigit(digitsBuf[i]) {
		i++
	}
	if i == 2 {
		return token.Token{}, false
	}

	digits := string(digitsBuf[2:i])
	top.Discard(i)

	longSuffix := c.consumeLongSuffix()

	var tok token.Token
	var err *cfgerr.ScanError
	if longSuffix {
		tok, err = buildHex64(digits, line, path)
	} else {
		tok, err = buildHex(digits, line, path)
	}
	if negative {
		tok = negateNumeric(tok)
	}
	if err != nil {
		c.lastErr = err
	}
	return tok, true
}

func isHexDigit(b byte) bool {
	_, ok := hexNibble(b)
	return ok
}

// consumeLongSuffix consumes a trailing 'L' or 'LL' (case-sensitive, a
// bare lowercase 'l' does not count).
func (c *Context) consumeLongSuffix() bool {
	b, ok := c.peek()
	if !ok || b != 'L' {
		return false
	}
	c.consume()
	if nb, ok := c.peek(); ok && nb == 'L' {
		c.consume()
	}
	return true
}

// lexDecimalLiteral handles everything not routed to lexHexLiteral:
// float forms, the L/LL-suffixed 64-bit integer form, and the plain
// INTEGER form (with its octal and promotion rules).
func (c *Context) lexDecimalLiteral(negative bool, line int, path string) token.Token {
	intPart := c.consumeDigitRun()

	isFloat := false
	hasDot := false
	var fracPart, expPart string
	expSign := ""

	if b, ok := c.peek(); ok && b == '.' {
		c.consume()
		fracPart = c.consumeDigitRun()
		isFloat = true
		hasDot = true
	}
	if b, ok := c.peek(); ok && (b == 'e' || b == 'E') {
		c.consume()
		if sb, ok := c.peek(); ok && (sb == '+' || sb == '-') {
			expSign = string(sb)
			c.consume()
		}
		expPart = c.consumeDigitRun()
		isFloat = true
	}

	if isFloat {
		hasExp := expPart != "" || expSign != ""
		lexeme := signPrefix(negative) + intPart
		if hasDot {
			lexeme += "." + fracPart
		}
		if hasExp {
			lexeme += "e" + expSign + expPart
		}
		tok, err := buildFloat(lexeme, line, path)
		if err != nil {
			c.lastErr = err
		}
		return tok
	}

	if c.consumeLongSuffix() {
		tok, err := buildInteger64(intPart, negative, line, path)
		if err != nil {
			c.lastErr = err
		}
		return tok
	}

	tok, err := buildInteger(intPart, negative, line, path)
	if err != nil {
		c.lastErr = err
	}
	return tok
}

func signPrefix(negative bool) string {
	if negative {
		return "-"
	}
	return ""
}

// negateNumeric applies a leading '-' sign to a HEX/HEX64 literal.
// libconfig's grammar allows a sign before any numeric form; for the
// unsigned hex kinds this is a bit-pattern negation of the parsed
// magnitude, matching what a two's-complement reinterpretation would
// produce.
func negateNumeric(tok token.Token) token.Token {
	switch tok.Kind {
	case token.Hex:
		tok.Int32 = -tok.Int32
		tok.Uint32 = uint32(tok.Int32)
	case token.Hex64:
		tok.Uint64 = uint64(-int64(tok.Uint64))
	}
	return tok
}

func (c *Context) consumeDigitRun() string {
	c.digitBuf = c.digitBuf[:0]
	for {
		b, ok := c.peek()
		if !ok || !isDigit(b) {
			break
		}
		c.consume()
		c.digitBuf = append(c.digitBuf, b)
	}
	return string(c.digitBuf)
}
