package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed type notation.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse type %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// ParseType parses tensor notation such as "tensor<2x?xf32>", "tensor<*x!tf.f32ref>"
// or "tensor<!tf.resource<tensor<4xf32>>>".
func ParseType(s string) (TensorType, error) {
	p := &typeParser{src: s}
	t, err := p.tensor()
	if err != nil {
		return TensorType{}, err
	}
	if err := p.end(); err != nil {
		return TensorType{}, err
	}
	return t, nil
}

// ParseScalar parses element notation such as "f32", "ui8" or "!tf.int32ref".
func ParseScalar(s string) (ScalarType, error) {
	p := &typeParser{src: s}
	t, err := p.scalar()
	if err != nil {
		return ScalarType{}, err
	}
	if err := p.end(); err != nil {
		return ScalarType{}, err
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or for built-in tables.
func MustParseType(s string) TensorType {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// MustParseScalar is like ParseScalar but panics on error.
func MustParseScalar(s string) ScalarType {
	t, err := ParseScalar(s)
	if err != nil {
		panic(err)
	}
	return t
}

// typeParser is a recursive-descent parser over the type notation.
type typeParser struct {
	src string
	pos int
}

func (p *typeParser) fail(format string, args ...any) error {
	return &ParseError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.fail("unexpected trailing input %q", p.src[p.pos:])
	}
	return nil
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) consume(lit string) bool {
	if strings.HasPrefix(p.src[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

func (p *typeParser) expect(lit string) error {
	if !p.consume(lit) {
		return p.fail("expected %q", lit)
	}
	return nil
}

func (p *typeParser) tensor() (TensorType, error) {
	p.skipSpace()
	if err := p.expect("tensor<"); err != nil {
		return TensorType{}, err
	}
	shape, err := p.shape()
	if err != nil {
		return TensorType{}, err
	}
	elem, err := p.scalar()
	if err != nil {
		return TensorType{}, err
	}
	if err := p.expect(">"); err != nil {
		return TensorType{}, err
	}
	return TensorType{Elem: elem, Shape: shape}, nil
}

// shape consumes "*x" or a run of "<dim>x" prefixes. Element types never
// start with a digit or '?', so the run ends at the first non-dimension.
func (p *typeParser) shape() (Shape, error) {
	if p.consume("*") {
		if err := p.expect("x"); err != nil {
			return Shape{}, err
		}
		return Unranked(), nil
	}
	dims := []int64{}
	for {
		c := p.peek()
		switch {
		case c == '?':
			p.pos++
			dims = append(dims, DynamicDim)
		case c >= '0' && c <= '9':
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
			}
			n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
			if err != nil {
				return Shape{}, p.fail("dimension %q: %v", p.src[start:p.pos], err)
			}
			dims = append(dims, n)
		default:
			return Shape{dims: dims}, nil
		}
		if err := p.expect("x"); err != nil {
			return Shape{}, err
		}
	}
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) scalar() (ScalarType, error) {
	p.skipSpace()
	start := p.pos
	if p.consume("!") {
		return p.dialectScalar(start)
	}
	name := p.ident()
	if t, ok := builtinScalars[name]; ok {
		return t, nil
	}
	p.pos = start
	if name == "" {
		return ScalarType{}, p.fail("expected element type")
	}
	return ScalarType{}, p.fail("unknown element type %q", name)
}

func (p *typeParser) dialectScalar(start int) (ScalarType, error) {
	dialect := p.ident()
	if dialect == "" || !p.consume(".") {
		p.pos = start
		return ScalarType{}, p.fail("expected dialect-qualified type")
	}
	name := p.ident()
	if name == "" {
		return ScalarType{}, p.fail("expected type name after %q", dialect+".")
	}
	base, isRef := strings.CutSuffix(name, "ref")
	if dialect != "tf" {
		if base == "" {
			base, isRef = name, false
		}
		caps, err := p.capabilities()
		if err != nil {
			return ScalarType{}, err
		}
		t := Opaque(dialect, base, caps...)
		if isRef {
			return t.Ref(), nil
		}
		return t, nil
	}

	var t ScalarType
	switch base {
	case "resource", "variant":
		subtypes, err := p.subtypes()
		if err != nil {
			return ScalarType{}, err
		}
		if base == "resource" {
			t = Resource(subtypes...)
		} else {
			t = Variant(subtypes...)
		}
	default:
		var ok bool
		t, ok = tfScalars[base]
		if ok && !isRef && t.kind != KindQuantized && t.kind != KindString {
			ok = false
		}
		if !ok {
			p.pos = start
			return ScalarType{}, p.fail("unknown tf type %q", name)
		}
	}
	if isRef {
		return t.Ref(), nil
	}
	return t, nil
}

// capabilities reads an optional "{a,b}" list after an opaque type name.
func (p *typeParser) capabilities() ([]string, error) {
	if !p.consume("{") {
		return nil, nil
	}
	var out []string
	for {
		p.skipSpace()
		c := p.ident()
		if c == "" {
			return nil, p.fail("expected capability name")
		}
		out = append(out, c)
		p.skipSpace()
		if p.consume(",") {
			continue
		}
		if err := p.expect("}"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *typeParser) subtypes() ([]TensorType, error) {
	if !p.consume("<") {
		return nil, nil
	}
	var out []TensorType
	for {
		t, err := p.tensor()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		p.skipSpace()
		if p.consume(",") {
			continue
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// builtinScalars are the element types spelled without a dialect prefix.
var builtinScalars = map[string]ScalarType{
	"i1":         Bool(),
	"i8":         SignedInt(8),
	"i16":        SignedInt(16),
	"i32":        SignedInt(32),
	"i64":        SignedInt(64),
	"ui8":        UnsignedInt(8),
	"ui16":       UnsignedInt(16),
	"ui32":       UnsignedInt(32),
	"ui64":       UnsignedInt(64),
	"f16":        Float(16),
	"f32":        Float(32),
	"f64":        Float(64),
	"bf16":       BFloat16(),
	"complex64":  Complex(32),
	"complex128": Complex(64),
}

// tfScalars maps "!tf." names (without the "ref" suffix) to their value types.
// Plain value types only use the quantized and string entries; the rest are
// reachable through reference names such as "!tf.int32ref".
var tfScalars = map[string]ScalarType{
	"bool":       Bool(),
	"int8":       SignedInt(8),
	"int16":      SignedInt(16),
	"int32":      SignedInt(32),
	"int64":      SignedInt(64),
	"uint8":      UnsignedInt(8),
	"uint16":     UnsignedInt(16),
	"uint32":     UnsignedInt(32),
	"uint64":     UnsignedInt(64),
	"f16":        Float(16),
	"f32":        Float(32),
	"f64":        Float(64),
	"bfloat16":   BFloat16(),
	"complex64":  Complex(32),
	"complex128": Complex(64),
	"qint8":      Quantized(QInt, 8),
	"qint16":     Quantized(QInt, 16),
	"qint32":     Quantized(QInt, 32),
	"quint8":     Quantized(QUInt, 8),
	"quint16":    Quantized(QUInt, 16),
	"string":     String(),
}
