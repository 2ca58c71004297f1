package token

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

func roundTrip(t *testing.T, in Token) Token {
	t.Helper()
	w, buf := archive.NewBufferWriter(binary.LittleEndian)
	if err := Transcode(w, &in); err != nil {
		t.Fatalf("write %v: %v", in, err)
	}
	var out Token
	if err := Transcode(archive.NewReader(buf, binary.LittleEndian), &out); err != nil {
		t.Fatalf("read %v: %v", in, err)
	}
	return out
}

func TestTranscode(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
	}{
		{"identifier", Token{Text: "foo", Loc: Location{1, 4}, Kind: Identifier}},
		{"delimiter", Token{Text: "::", Loc: Location{2, 7}, Kind: Delimiter}},
		{"macro name", Token{Text: "assert!", Loc: Location{3, 1}, Kind: MacroName}},
		{"macro identifier", Token{Text: "$x", Loc: Location{3, 9}, Kind: MacroIdentifier}},
		{"unknown", Token{Text: "?", Loc: Location{}, Kind: Unknown}},
		{"int", Token{Text: "42", Loc: Location{10, 2}, Kind: IntLiteral, Value: Int(42)}},
		{"negative int", Token{Text: "-9000000000", Loc: Location{10, 2}, Kind: IntLiteral, Value: Int(-9000000000)}},
		{"float", Token{Text: "1.5", Loc: Location{4, 20}, Kind: FloatLiteral, Value: Float(1.5)}},
		{"string", Token{Text: `"hi"`, Loc: Location{5, 5}, Kind: StringLiteral, Value: String("hi")}},
		{"empty string", Token{Text: `""`, Loc: Location{5, 5}, Kind: StringLiteral, Value: String("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.tok)
			if got != tt.tok {
				t.Errorf("got %v, want %v", got, tt.tok)
			}
		})
	}
}

func TestTranscodeInvalidKind(t *testing.T) {
	// text "a", location 1:1, kind one past the last variant
	data := []byte{0x01, 'a', 0x01, 0x01, byte(LastKind) + 1, 0x00}
	var tok Token
	err := Transcode(archive.NewReader(bytes.NewReader(data), binary.LittleEndian), &tok)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidEnum}) {
		t.Errorf("expected invalid enum, got %v", err)
	}
}

func TestTranscodeLiteralWithoutValue(t *testing.T) {
	t.Run("decode", func(t *testing.T) {
		data := []byte{0x01, '1', 0x01, 0x01, byte(IntLiteral), 0x00}
		var tok Token
		err := Transcode(archive.NewReader(bytes.NewReader(data), binary.LittleEndian), &tok)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindMissingValue}) {
			t.Errorf("expected missing value, got %v", err)
		}
	})

	t.Run("encode", func(t *testing.T) {
		w, _ := archive.NewBufferWriter(binary.LittleEndian)
		tok := Token{Text: "1", Kind: IntLiteral}
		err := Transcode(w, &tok)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindMissingValue}) {
			t.Errorf("expected missing value, got %v", err)
		}
	})
}

func TestTranscodeValueOnNonLiteral(t *testing.T) {
	data := []byte{0x01, 'x', 0x01, 0x01, byte(Identifier), 0x01}
	var tok Token
	err := Transcode(archive.NewReader(bytes.NewReader(data), binary.LittleEndian), &tok)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnexpectedValue}) {
		t.Errorf("expected unexpected value, got %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		value   Value
		wantErr errors.Kind
	}{
		{"identifier", Identifier, nil, ""},
		{"int literal", IntLiteral, Int(1), ""},
		{"literal missing value", FloatLiteral, nil, errors.KindMissingValue},
		{"identifier with value", Identifier, String("x"), errors.KindUnexpectedValue},
		{"mismatched value", IntLiteral, Float(1), errors.KindTypeMismatch},
		{"bad kind", LastKind + 1, nil, errors.KindInvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", Location{1, 1}, tt.kind, tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != tt.wantErr {
				t.Errorf("got %v, want kind %s", err, tt.wantErr)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"std":    Identifier,
		"$arg":   MacroIdentifier,
		"print!": MacroName,
		"$":      Identifier,
		"!":      Identifier,
	}
	for text, want := range tests {
		if got := Classify(text); got != want {
			t.Errorf("Classify(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestSort(t *testing.T) {
	tokens := []Token{
		{Text: "c", Loc: Location{2, 1}},
		{Text: "b", Loc: Location{1, 5}},
		{Text: "z", Loc: Location{1, 2}},
		{Text: "a", Loc: Location{1, 2}},
	}
	Sort(tokens)

	want := []string{"a", "z", "b", "c"}
	for i, w := range want {
		if tokens[i].Text != w {
			t.Errorf("position %d: got %q, want %q", i, tokens[i].Text, w)
		}
	}
}

func TestKindString(t *testing.T) {
	if FloatLiteral.String() != "fp_literal" {
		t.Errorf("got %q", FloatLiteral.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Errorf("got %q", Kind(99).String())
	}
	if (Location{3, 14}).String() != "3:14" {
		t.Errorf("got %q", Location{3, 14}.String())
	}
}
