package scanner

import (
	"math"
	"strconv"

	"github.com/libconfigo/lcfgscan/internal/cfgerr"
	"github.com/libconfigo/lcfgscan/internal/token"
)

// buildInteger implements the INTEGER/INTEGER64/ERROR disambiguation in
// §4.1 and §8 of the scanner spec. digits is the unsigned digit run (no
// sign, no base prefix, no L/LL suffix); negative reflects a leading '-'
// consumed before the digits.
//
// A leading-zero digit run of length >= 2 is octal, per the "octal is
// always INTEGER" design note (§9): it is parsed in base 8 and
// truncated to 32 bits regardless of magnitude. Everything else is
// parsed in base 10: a result within int32 range is an INTEGER, one in
// (INT32_MAX, UINT32_MAX] is demoted to a 32-bit INTEGER, and anything
// else is promoted to INTEGER64.
func buildInteger(digits string, negative bool, line int, path string) (token.Token, *cfgerr.ScanError) {
	base := 10
	octal := len(digits) >= 2 && digits[0] == '0'
	if octal {
		base = 8
	}

	signed := digits
	if negative {
		signed = "-" + digits
	}

	v, err := strconv.ParseInt(signed, base, 64)
	if err != nil {
		return token.Token{Kind: token.Error, Line: line, Path: path},
			cfgerr.New(cfgerr.KindNumeric, path, line, err)
	}

	if octal {
		return token.Token{Kind: token.Integer, Line: line, Path: path, Int32: int32(uint32(v))}, nil
	}

	switch {
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return token.Token{Kind: token.Integer, Line: line, Path: path, Int32: int32(v)}, nil
	case v > math.MaxInt32 && v <= math.MaxUint32:
		return token.Token{Kind: token.Integer, Line: line, Path: path, Int32: int32(uint32(v))}, nil
	default:
		return token.Token{Kind: token.Integer64, Line: line, Path: path, Int64: v}, nil
	}
}

// buildInteger64 handles a decimal literal with a required L/LL suffix
// (already stripped by the caller): parsed directly as 64-bit signed,
// with no promotion or truncation games.
func buildInteger64(digits string, negative bool, line int, path string) (token.Token, *cfgerr.ScanError) {
	signed := digits
	if negative {
		signed = "-" + digits
	}
	v, err := strconv.ParseInt(signed, 10, 64)
	if err != nil {
		return token.Token{Kind: token.Error, Line: line, Path: path},
			cfgerr.New(cfgerr.KindNumeric, path, line, err)
	}
	return token.Token{Kind: token.Integer64, Line: line, Path: path, Int64: v}, nil
}

// buildHex parses a 0x/0X-prefixed hex literal with no L/LL suffix:
// 32-bit unsigned, exposed to the caller as the equivalent signed
// 32-bit bit pattern (§3: "32-bit unsigned, exposed as signed 32-bit").
func buildHex(digits string, line int, path string) (token.Token, *cfgerr.ScanError) {
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return token.Token{Kind: token.Error, Line: line, Path: path},
			cfgerr.New(cfgerr.KindNumeric, path, line, err)
	}
	return token.Token{Kind: token.Hex, Line: line, Path: path, Uint32: uint32(v), Int32: int32(uint32(v))}, nil
}

// buildHex64 parses a 0x/0X-prefixed hex literal with a required L/LL
// suffix: 64-bit unsigned.
func buildHex64(digits string, line int, path string) (token.Token, *cfgerr.ScanError) {
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return token.Token{Kind: token.Error, Line: line, Path: path},
			cfgerr.New(cfgerr.KindNumeric, path, line, err)
	}
	return token.Token{Kind: token.Hex64, Line: line, Path: path, Uint64: v}, nil
}

// buildFloat parses the accumulated float lexeme (sign, digits, '.',
// digits, exponent — whichever of these the caller's matcher admitted).
func buildFloat(lexeme string, line int, path string) (token.Token, *cfgerr.ScanError) {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token.Token{Kind: token.Error, Line: line, Path: path},
			cfgerr.New(cfgerr.KindNumeric, path, line, err)
	}
	return token.Token{Kind: token.Float, Line: line, Path: path, Float64: v}, nil
}

// hexNibble decodes a single ASCII hex digit, case-insensitive.
func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
