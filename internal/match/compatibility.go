package match

import (
	"go/types"
)

// Copy describes how a value of a source type can be stored in a target
// member without a user-supplied override.
type Copy int

const (
	// CopyNone means the generator cannot copy the value.
	CopyNone Copy = iota
	// CopyConvert means a conversion T(v) is emitted: the numeric conversion
	// widens without loss, or both types share an identical underlying type.
	CopyConvert
	// CopyAssign means the value is assignable as is.
	CopyAssign
	// CopyIdentical means the types are identical.
	CopyIdentical
)

const (
	VerdictIdentical    = "identical"
	VerdictAssignable   = "assignable"
	VerdictConvertible  = "convertible"
	VerdictIncompatible = "incompatible"
)

// String returns a human-readable name for the copy strategy.
func (c Copy) String() string {
	switch c {
	case CopyIdentical:
		return VerdictIdentical
	case CopyAssign:
		return VerdictAssignable
	case CopyConvert:
		return VerdictConvertible
	case CopyNone:
		return VerdictIncompatible
	default:
		return "unknown"
	}
}

// Direct reports whether the value can be copied without a conversion.
func (c Copy) Direct() bool {
	return c >= CopyAssign
}

// CopyResult contains the strategy together with a human-readable reason.
type CopyResult struct {
	Copy       Copy
	Reason     string
	SourceType string
	TargetType string
}

// Classify determines how a value of type source is copied into a member of
// type target.
func Classify(source, target types.Type) CopyResult {
	res := CopyResult{SourceType: source.String(), TargetType: target.String()}

	switch {
	case types.Identical(source, target):
		res.Copy, res.Reason = CopyIdentical, "types are identical"
	case types.AssignableTo(source, target):
		res.Copy, res.Reason = CopyAssign, "source is assignable to target"
	case types.Identical(source.Underlying(), target.Underlying()):
		res.Copy, res.Reason = CopyConvert, "identical underlying types"
	case IsNumericType(source) && IsNumericType(target):
		if widens(source, target) {
			res.Copy, res.Reason = CopyConvert, "numeric widening"
		} else {
			res.Copy, res.Reason = CopyNone, "converting "+res.SourceType+" to "+res.TargetType+" may lose data"
		}
	default:
		res.Copy, res.Reason = CopyNone, "cannot assign "+res.SourceType+" to "+res.TargetType
	}

	return res
}

// ClassifyExplicit is Classify for a value the user computed by hand, such as
// an override body: any numeric conversion is accepted, narrowing included.
func ClassifyExplicit(source, target types.Type) CopyResult {
	res := Classify(source, target)
	if res.Copy == CopyNone && IsNumericType(source) && IsNumericType(target) && types.ConvertibleTo(source, target) {
		res.Copy, res.Reason = CopyConvert, "explicit numeric conversion"
	}

	return res
}

// numeric describes the value range of a basic numeric kind. Platform sized
// kinds carry their smallest and largest width in bits.
type numeric struct {
	family   types.BasicInfo
	unsigned bool
	minBits  int
	maxBits  int
}

func numericOf(t types.Type) (numeric, bool) {
	b, ok := t.Underlying().(*types.Basic)
	if !ok || b.Info()&types.IsNumeric == 0 || b.Info()&types.IsUntyped != 0 {
		return numeric{}, false
	}

	n := numeric{unsigned: b.Info()&types.IsUnsigned != 0}

	switch {
	case b.Info()&types.IsInteger != 0:
		n.family = types.IsInteger
	case b.Info()&types.IsFloat != 0:
		n.family = types.IsFloat
	default:
		n.family = types.IsComplex
	}

	switch b.Kind() {
	case types.Int8, types.Uint8:
		n.minBits, n.maxBits = 8, 8
	case types.Int16, types.Uint16:
		n.minBits, n.maxBits = 16, 16
	case types.Int32, types.Uint32, types.Float32:
		n.minBits, n.maxBits = 32, 32
	case types.Int, types.Uint, types.Uintptr:
		n.minBits, n.maxBits = 32, 64
	case types.Complex64:
		n.minBits, n.maxBits = 64, 64
	case types.Complex128:
		n.minBits, n.maxBits = 128, 128
	default:
		n.minBits, n.maxBits = 64, 64
	}

	return n, true
}

// widens reports whether every value of source survives a conversion to
// target on every platform. Conversions stay inside one kind family, never
// shrink and never drop the sign.
func widens(source, target types.Type) bool {
	src, ok1 := numericOf(source)
	dst, ok2 := numericOf(target)
	if !ok1 || !ok2 || src.family != dst.family {
		return false
	}

	if src.family != types.IsInteger {
		return dst.minBits >= src.maxBits
	}

	switch {
	case src.unsigned == dst.unsigned:
		return dst.minBits >= src.maxBits
	case src.unsigned:
		return dst.minBits > src.maxBits
	default:
		return false
	}
}

// IsNumericType returns true if the type is a numeric basic type.
func IsNumericType(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return false
	}

	return basic.Info()&types.IsNumeric != 0
}

// IsEmptyInterface reports whether t is an interface without methods (any).
func IsEmptyInterface(t types.Type) bool {
	iface, ok := t.Underlying().(*types.Interface)
	return ok && iface.Empty()
}
