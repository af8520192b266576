package xpath2

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// XSDType tags the XSD atomic type carried by an Atomic value, per
// spec.md section 3's "Atomic value" data model.
type XSDType uint8

const (
	TypeUntypedAtomic XSDType = iota
	TypeString
	TypeNormalizedString
	TypeToken
	TypeLanguage
	TypeName
	TypeNCName
	TypeID
	TypeIDREF
	TypeENTITY
	TypeNMTOKEN
	TypeBoolean
	TypeDecimal
	TypeInteger
	TypeNonNegativeInteger
	TypePositiveInteger
	TypeNonPositiveInteger
	TypeNegativeInteger
	TypeLong
	TypeInt
	TypeShort
	TypeByte
	TypeUnsignedLong
	TypeUnsignedInt
	TypeUnsignedShort
	TypeUnsignedByte
	TypeDouble
	TypeFloat
	TypeAnyURI
	TypeQName
	TypeHexBinary
	TypeBase64Binary
	TypeDateTime
	TypeDate
	TypeTime
	TypeGYear
	TypeGYearMonth
	TypeGMonth
	TypeGMonthDay
	TypeGDay
	TypeDuration
	TypeYearMonthDuration
	TypeDayTimeDuration
)

// String returns the unprefixed XSD type name, e.g. "integer", "dateTime".
func (t XSDType) String() string {
	switch t {
	case TypeUntypedAtomic:
		return "untypedAtomic"
	case TypeString:
		return "string"
	case TypeNormalizedString:
		return "normalizedString"
	case TypeToken:
		return "token"
	case TypeLanguage:
		return "language"
	case TypeName:
		return "Name"
	case TypeNCName:
		return "NCName"
	case TypeID:
		return "ID"
	case TypeIDREF:
		return "IDREF"
	case TypeENTITY:
		return "ENTITY"
	case TypeNMTOKEN:
		return "NMTOKEN"
	case TypeBoolean:
		return "boolean"
	case TypeDecimal:
		return "decimal"
	case TypeInteger:
		return "integer"
	case TypeNonNegativeInteger:
		return "nonNegativeInteger"
	case TypePositiveInteger:
		return "positiveInteger"
	case TypeNonPositiveInteger:
		return "nonPositiveInteger"
	case TypeNegativeInteger:
		return "negativeInteger"
	case TypeLong:
		return "long"
	case TypeInt:
		return "int"
	case TypeShort:
		return "short"
	case TypeByte:
		return "byte"
	case TypeUnsignedLong:
		return "unsignedLong"
	case TypeUnsignedInt:
		return "unsignedInt"
	case TypeUnsignedShort:
		return "unsignedShort"
	case TypeUnsignedByte:
		return "unsignedByte"
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeAnyURI:
		return "anyURI"
	case TypeQName:
		return "QName"
	case TypeHexBinary:
		return "hexBinary"
	case TypeBase64Binary:
		return "base64Binary"
	case TypeDateTime:
		return "dateTime"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeGYear:
		return "gYear"
	case TypeGYearMonth:
		return "gYearMonth"
	case TypeGMonth:
		return "gMonth"
	case TypeGMonthDay:
		return "gMonthDay"
	case TypeGDay:
		return "gDay"
	case TypeDuration:
		return "duration"
	case TypeYearMonthDuration:
		return "yearMonthDuration"
	case TypeDayTimeDuration:
		return "dayTimeDuration"
	default:
		return "unknown"
	}
}

// isNumeric reports whether t is one of the numeric XSD types.
func (t XSDType) isNumeric() bool {
	switch t {
	case TypeDecimal, TypeInteger, TypeNonNegativeInteger, TypePositiveInteger,
		TypeNonPositiveInteger, TypeNegativeInteger, TypeLong, TypeInt, TypeShort,
		TypeByte, TypeUnsignedLong, TypeUnsignedInt, TypeUnsignedShort, TypeUnsignedByte,
		TypeDouble, TypeFloat:
		return true
	default:
		return false
	}
}

// isIntegerFamily reports whether t is xs:integer or one of its bounded
// subtypes, per spec.md section 3.
func (t XSDType) isIntegerFamily() bool {
	switch t {
	case TypeInteger, TypeNonNegativeInteger, TypePositiveInteger, TypeNonPositiveInteger,
		TypeNegativeInteger, TypeLong, TypeInt, TypeShort, TypeByte,
		TypeUnsignedLong, TypeUnsignedInt, TypeUnsignedShort, TypeUnsignedByte:
		return true
	default:
		return false
	}
}

// QName is an expanded qualified name: a URI/local pair plus the
// optional lexical prefix it was read under, per spec.md section 3.
type QName struct {
	URI    string
	Local  string
	Prefix string
}

func (q QName) String() string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.Local
	}
	return q.Local
}

// IsZero reports whether q is the empty QName.
func (q QName) IsZero() bool { return q.URI == "" && q.Local == "" }

// Atomic is a tagged-variant XSD atomic value, per spec.md section 3.
// Only the fields relevant to the carried Type are meaningful; the rest
// are zero. Bounded integer subtypes additionally carry [Lo, Hi) so a
// value produced by range arithmetic can be re-validated later.
type Atomic struct {
	Type  XSDType
	Str   string   // string-family types, anyURI, QName lexical, language, etc.
	Num   float64  // decimal/double/float
	Int   int64    // integer family exact value
	Lo    int64    // inclusive lower bound for bounded integer subtypes
	Hi    int64    // exclusive upper bound; meaningless unless the type has one (see boundsFor in types.go)
	Bool  bool
	QName QName
	Bytes []byte // hexBinary/base64Binary canonical bytes
	Temp  *Temporal
	Dur   *Duration
}

// String renders the canonical lexical form of the value.
func (a Atomic) String() string {
	switch a.Type {
	case TypeBoolean:
		if a.Bool {
			return "true"
		}
		return "false"
	case TypeDouble, TypeFloat, TypeDecimal:
		return formatXSDNumber(a.Num)
	case TypeQName:
		return a.QName.String()
	case TypeHexBinary:
		return strings.ToUpper(fmt.Sprintf("%x", a.Bytes))
	case TypeBase64Binary:
		return base64Encode(a.Bytes)
	case TypeDateTime, TypeDate, TypeTime, TypeGYear, TypeGYearMonth, TypeGMonth, TypeGMonthDay, TypeGDay:
		if a.Temp != nil {
			return a.Temp.String(a.Type)
		}
		return ""
	case TypeDuration, TypeYearMonthDuration, TypeDayTimeDuration:
		if a.Dur != nil {
			return a.Dur.String()
		}
		return ""
	default:
		if a.Type.isIntegerFamily() {
			return strconv.FormatInt(a.Int, 10)
		}
		return a.Str
	}
}

// Float64 returns the numeric value of a numeric-family atomic.
func (a Atomic) Float64() (float64, bool) {
	switch {
	case a.Type.isIntegerFamily():
		return float64(a.Int), true
	case a.Type == TypeDecimal || a.Type == TypeDouble || a.Type == TypeFloat:
		return a.Num, true
	default:
		return 0, false
	}
}

func formatXSDNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// NewString builds a TypeString atomic (the most common constructor
// target; used pervasively by the function library).
func NewString(s string) Atomic { return Atomic{Type: TypeString, Str: s} }

// NewBoolean builds a TypeBoolean atomic.
func NewBoolean(b bool) Atomic { return Atomic{Type: TypeBoolean, Bool: b} }

// NewDouble builds a TypeDouble atomic.
func NewDouble(f float64) Atomic { return Atomic{Type: TypeDouble, Num: f} }

// NewInteger builds a TypeInteger atomic.
func NewInteger(i int64) Atomic { return Atomic{Type: TypeInteger, Int: i} }

// NewUntypedAtomic builds an untypedAtomic wrapping a lexical string,
// the type carried by a tree node's default typed value.
func NewUntypedAtomic(s string) Atomic { return Atomic{Type: TypeUntypedAtomic, Str: s} }

// atomize converts an item (Node or Atomic) into its atomic sequence,
// implementing the fn:data step implicit in value comparisons and
// arithmetic per spec.md section 4.F.
func atomize(item any) ([]Atomic, error) {
	switch v := item.(type) {
	case Atomic:
		return []Atomic{v}, nil
	case Node:
		tv := v.TypedValue()
		if tv == nil {
			return nil, newError(ErrFOTY0012, 0, "node does not have a typed value")
		}
		return tv, nil
	default:
		return nil, newError(ErrXPTY0004, 0, "item %v cannot be atomized", item)
	}
}

// atomizeOne atomizes a single item and requires exactly one resulting
// atomic value (the common case for value comparisons).
func atomizeOne(item any) (Atomic, error) {
	vs, err := atomize(item)
	if err != nil {
		return Atomic{}, err
	}
	if len(vs) != 1 {
		return Atomic{}, newError(ErrXPTY0004, 0, "expected a single atomic value")
	}
	return vs[0], nil
}

// Flatten concatenates nested sequences/items into one flat slice,
// enforcing the "nesting is forbidden (flatten-on-construct)" invariant
// of spec.md section 3.
func Flatten(items ...any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case nil:
			continue
		case []any:
			out = append(out, Flatten(v...)...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// EffectiveBooleanValue computes the effective boolean value of a
// sequence per XPath 2.0 fn:boolean rules: empty -> false; first item a
// node -> true; singleton boolean/atomic -> its value; singleton
// numeric -> nonzero and non-NaN; singleton string -> non-empty;
// anything else -> XPTY0004.
func EffectiveBooleanValue(seq []any) (bool, error) {
	if len(seq) == 0 {
		return false, nil
	}
	if IsXPathNode(seq[0]) {
		return true, nil
	}
	if len(seq) > 1 {
		return false, newError(ErrXPTY0004, 0, "effective boolean value of a sequence of more than one item that starts with an atomic value")
	}
	a, ok := seq[0].(Atomic)
	if !ok {
		return false, newError(ErrXPTY0004, 0, "cannot derive an effective boolean value")
	}
	switch {
	case a.Type == TypeBoolean:
		return a.Bool, nil
	case a.Type.isNumeric():
		f, _ := a.Float64()
		return f != 0 && !math.IsNaN(f), nil
	default:
		return a.Str != "", nil
	}
}

// sortByStringValue implements the reference order documented for
// fn:unordered in spec.md section 9's Open Questions: deterministic,
// ascending by string value.
func sortByStringValue(items []any) {
	sort.SliceStable(items, func(i, j int) bool {
		return StringValue(items[i]) < StringValue(items[j])
	})
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
