package archive

import (
	stderrors "errors"
	"strconv"

	"github.com/wippyai/slang/errors"
)

// Length transcodes a non-negative VLE length bounded by MaxLength.
func Length(a Archive, n *int) error {
	if a.IsWriting() && (*n < 0 || *n > MaxLength) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, *n, MaxLength)
	}
	v := int64(*n)
	if err := a.VarInt(&v); err != nil {
		return err
	}
	if v < 0 {
		return errors.InvalidData(Phase(a), nil, "negative length "+strconv.FormatInt(v, 10))
	}
	if v > MaxLength {
		return errors.Overflow(Phase(a), nil, v, "length limit")
	}
	*n = int(v)
	return nil
}

// Enum transcodes a closed enumeration as a single byte. A tag above last
// is rejected in both directions.
func Enum[T ~uint8](a Archive, v *T, last T, name string) error {
	if a.IsWriting() && *v > last {
		return errors.InvalidEnum(errors.PhaseEncode, nil, uint8(*v), name)
	}
	b := uint8(*v)
	if err := a.Uint8(&b); err != nil {
		return err
	}
	if T(b) > last {
		return errors.InvalidEnum(Phase(a), nil, b, name)
	}
	*v = T(b)
	return nil
}

// Need states whether an optional value must be present.
type Need uint8

const (
	NeedAny Need = iota
	NeedPresent
	NeedAbsent
)

// Presence transcodes a presence flag and checks it against need. It
// returns the flag as written or read.
func Presence(a Archive, present bool, need Need) (bool, error) {
	if err := a.Bool(&present); err != nil {
		return false, err
	}
	switch {
	case need == NeedPresent && !present:
		return false, errors.New(Phase(a), errors.KindMissingValue).Detail("required value is absent").Build()
	case need == NeedAbsent && present:
		return false, errors.New(Phase(a), errors.KindUnexpectedValue).Detail("value present where none is allowed").Build()
	}
	return present, nil
}

// Optional transcodes a presence flag followed by the value when present.
func Optional[T any](a Archive, v **T, need Need, fn func(Archive, *T) error) error {
	present, err := Presence(a, *v != nil, need)
	if err != nil || !present {
		if a.IsReading() && err == nil {
			*v = nil
		}
		return err
	}
	if a.IsReading() {
		*v = new(T)
	}
	return fn(a, *v)
}

// Slice transcodes a VLE count followed by the items.
func Slice[T any](a Archive, s *[]T, fn func(Archive, *T) error) error {
	n := len(*s)
	if err := Length(a, &n); err != nil {
		return err
	}
	if a.IsReading() {
		if n == 0 {
			*s = nil
			return nil
		}
		// n is untrusted; preallocation stays capped
		*s = make([]T, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			var item T
			if err := fn(a, &item); err != nil {
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Path(strconv.Itoa(i)).
					Cause(err).
					Detail("item %d of %d", i, n).
					Build()
			}
			*s = append(*s, item)
		}
		return nil
	}
	for i := range *s {
		if err := fn(a, &(*s)[i]); err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(strconv.Itoa(i)).
				Cause(err).
				Detail("item %d of %d", i, n).
				Build()
		}
	}
	return nil
}

// Section runs fn and tags a failure with name and the archive position.
// An error that already carries a section keeps the innermost one.
func Section(a Archive, name string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return err
	}
	return a.WrapError(name, err)
}
