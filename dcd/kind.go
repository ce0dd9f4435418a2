package dcd

// Kind is the single-character symbol kind code dcd-server attaches to identifiers.
type Kind byte

const (
	KindUnknown          Kind = 0
	KindClass            Kind = 'c'
	KindInterface        Kind = 'i'
	KindStruct           Kind = 's'
	KindUnion            Kind = 'u'
	KindVariable         Kind = 'v'
	KindMemberVariable   Kind = 'm'
	KindKeyword          Kind = 'k'
	KindFunction         Kind = 'f'
	KindEnum             Kind = 'g'
	KindEnumMember       Kind = 'e'
	KindPackage          Kind = 'P'
	KindModule           Kind = 'M'
	KindArray            Kind = 'a'
	KindAssociativeArray Kind = 'A'
	KindAlias            Kind = 'l'
)

// OtherLabel is shown for kind codes dcd-server may add in the future.
const OtherLabel = "other"

var kindLabels = map[Kind]string{
	KindClass:            "class",
	KindInterface:        "interface",
	KindStruct:           "struct",
	KindUnion:            "union",
	KindVariable:         "variable",
	KindMemberVariable:   "member variable",
	KindKeyword:          "keyword",
	KindFunction:         "function",
	KindEnum:             "enum",
	KindEnumMember:       "enum member",
	KindPackage:          "package",
	KindModule:           "module",
	KindArray:            "array",
	KindAssociativeArray: "associative array",
	KindAlias:            "alias",
}

// ParseKind converts a kind code field. Anything but a single known character is KindUnknown.
func ParseKind(code string) Kind {
	if len(code) != 1 {
		return KindUnknown
	}
	k := Kind(code[0])
	if _, ok := kindLabels[k]; !ok {
		return KindUnknown
	}
	return k
}

// Known reports whether k is one of the documented kind codes.
func (k Kind) Known() bool {
	_, ok := kindLabels[k]
	return ok
}

// Label returns the human readable name of k, or OtherLabel.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return OtherLabel
}

func (k Kind) String() string { return k.Label() }
