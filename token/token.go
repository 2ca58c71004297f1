package token

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

// Kind is the lexical category of a token.
type Kind uint8

const (
	Unknown Kind = iota
	Delimiter
	Identifier
	MacroIdentifier
	MacroName
	IntLiteral
	FloatLiteral
	StringLiteral

	// LastKind is the highest valid tag.
	LastKind = StringLiteral
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Delimiter:
		return "delimiter"
	case Identifier:
		return "identifier"
	case MacroIdentifier:
		return "macro_identifier"
	case MacroName:
		return "macro_name"
	case IntLiteral:
		return "int_literal"
	case FloatLiteral:
		return "fp_literal"
	case StringLiteral:
		return "str_literal"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsLiteral reports whether tokens of this kind carry a value.
func (k Kind) IsLiteral() bool {
	return k == IntLiteral || k == FloatLiteral || k == StringLiteral
}

// Location is a 1-based source position.
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string {
	return strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Column)
}

// IsValid reports whether the location points into a source file.
func (l Location) IsValid() bool {
	return l.Line > 0
}

// Value is the literal payload of a token.
type Value interface {
	literalKind() Kind
	fmt.Stringer
}

type (
	Int    int64
	Float  float64
	String string
)

func (Int) literalKind() Kind    { return IntLiteral }
func (Float) literalKind() Kind  { return FloatLiteral }
func (String) literalKind() Kind { return StringLiteral }

func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string { return strconv.Quote(string(v)) }

// Token is a lexical unit with its source location. Literal kinds always
// carry a Value of the matching type; other kinds never do.
type Token struct {
	Value Value
	Text  string
	Loc   Location
	Kind  Kind
}

// New creates a token and checks the literal invariant.
func New(text string, loc Location, kind Kind, value Value) (Token, error) {
	t := Token{Text: text, Loc: loc, Kind: kind, Value: value}
	if err := t.Validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

// Ident creates an identifier token.
func Ident(name string, loc Location) Token {
	return Token{Text: name, Loc: loc, Kind: Classify(name)}
}

// Classify returns the identifier-like kind of text: "$x" is a macro
// identifier, "x!" a macro name, anything else an identifier.
func Classify(text string) Kind {
	switch {
	case len(text) > 1 && text[0] == '$':
		return MacroIdentifier
	case len(text) > 1 && strings.HasSuffix(text, "!"):
		return MacroName
	default:
		return Identifier
	}
}

// Validate checks that literal kinds carry a value of the matching type
// and that no other kind carries one.
func (t Token) Validate() error {
	if t.Kind > LastKind {
		return errors.InvalidEnum(errors.PhaseEncode, nil, uint8(t.Kind), "token kind")
	}
	switch {
	case t.Kind.IsLiteral() && t.Value == nil:
		return errors.New(errors.PhaseEncode, errors.KindMissingValue).
			Symbol(t.Text).
			Detail("%s token without value", t.Kind).
			Build()
	case !t.Kind.IsLiteral() && t.Value != nil:
		return errors.New(errors.PhaseEncode, errors.KindUnexpectedValue).
			Symbol(t.Text).
			Detail("%s token with value %s", t.Kind, t.Value).
			Build()
	case t.Value != nil && t.Value.literalKind() != t.Kind:
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Symbol(t.Text).
			Detail("%s token with %s value", t.Kind, t.Value.literalKind()).
			Build()
	}
	return nil
}

func (t Token) String() string {
	if t.Value != nil {
		return fmt.Sprintf("%s %s(%s) %s", t.Loc, t.Kind, t.Text, t.Value)
	}
	return fmt.Sprintf("%s %s(%s)", t.Loc, t.Kind, t.Text)
}

// Less orders tokens by line, column, then text.
func Less(a, b Token) bool {
	if a.Loc.Line != b.Loc.Line {
		return a.Loc.Line < b.Loc.Line
	}
	if a.Loc.Column != b.Loc.Column {
		return a.Loc.Column < b.Loc.Column
	}
	return a.Text < b.Text
}

// Sort orders tokens in place by Less.
func Sort(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool { return Less(tokens[i], tokens[j]) })
}

// TranscodeLocation transcodes a location as two VLE integers, line first.
func TranscodeLocation(a archive.Archive, l *Location) error {
	line, col := int64(l.Line), int64(l.Column)
	if err := a.VarInt(&line); err != nil {
		return err
	}
	if err := a.VarInt(&col); err != nil {
		return err
	}
	if line < 0 || col < 0 {
		return errors.InvalidData(archive.Phase(a), []string{"location"}, fmt.Sprintf("negative location %d:%d", line, col))
	}
	l.Line, l.Column = int(line), int(col)
	return nil
}

// Transcode serializes or deserializes a token: text, location, kind tag,
// presence flag and the literal value.
func Transcode(a archive.Archive, t *Token) error {
	if a.IsWriting() {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if err := a.String(&t.Text); err != nil {
		return err
	}
	if err := TranscodeLocation(a, &t.Loc); err != nil {
		return err
	}
	if err := archive.Enum(a, &t.Kind, LastKind, "token kind"); err != nil {
		return err
	}

	need := archive.NeedAbsent
	if t.Kind.IsLiteral() {
		need = archive.NeedPresent
	}
	present, err := archive.Presence(a, t.Value != nil, need)
	if err != nil {
		return errors.New(archive.Phase(a), errors.KindInvalidData).
			Symbol(t.Text).
			Cause(err).
			Detail("%s token value", t.Kind).
			Build()
	}
	if !present {
		t.Value = nil
		return nil
	}
	return transcodeValue(a, t)
}

func transcodeValue(a archive.Archive, t *Token) error {
	switch t.Kind {
	case IntLiteral:
		var v int64
		if a.IsWriting() {
			v = int64(t.Value.(Int))
		}
		if err := a.Int64(&v); err != nil {
			return err
		}
		t.Value = Int(v)
	case FloatLiteral:
		var v float64
		if a.IsWriting() {
			v = float64(t.Value.(Float))
		}
		if err := a.Float64(&v); err != nil {
			return err
		}
		t.Value = Float(v)
	case StringLiteral:
		var v string
		if a.IsWriting() {
			v = string(t.Value.(String))
		}
		if err := a.String(&v); err != nil {
			return err
		}
		t.Value = String(v)
	default:
		return errors.Unsupported(archive.Phase(a), "value for "+t.Kind.String()+" token")
	}
	return nil
}
