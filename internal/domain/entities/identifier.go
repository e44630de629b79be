package entities

import "strings"

// IDKind discriminates the namespace a resolved identifier belongs to.
type IDKind string

const (
	IDKindProcedure IDKind = "procedure"
	IDKindPackage   IDKind = "package"
	IDKindCandidate IDKind = "candidate"
)

// Wire prefixes predate this type and are load-bearing: persisted ids and API
// consumers rely on the exact text, so String/ParseResolvedID must round-trip.
const (
	packageIDPrefix   = "pkg_"
	candidateIDPrefix = "unmapped_"
)

// ResolvedID is a tagged identifier returned by procedure resolution. The kind
// carries what used to be encoded only in the string prefix.
type ResolvedID struct {
	Kind  IDKind `json:"kind"`
	Value string `json:"value"`
}

// NewProcedureID returns a ResolvedID in the procedure namespace.
func NewProcedureID(id string) ResolvedID {
	return ResolvedID{Kind: IDKindProcedure, Value: id}
}

// NewPackageID returns a ResolvedID in the package namespace.
func NewPackageID(id string) ResolvedID {
	return ResolvedID{Kind: IDKindPackage, Value: id}
}

// NewCandidateID returns the unmapped sentinel for a mapping candidate.
func NewCandidateID(id string) ResolvedID {
	return ResolvedID{Kind: IDKindCandidate, Value: id}
}

// IsZero reports whether the id is unset.
func (id ResolvedID) IsZero() bool {
	return id.Value == ""
}

// String renders the identifier in its legacy wire format.
func (id ResolvedID) String() string {
	switch id.Kind {
	case IDKindPackage:
		return packageIDPrefix + id.Value
	case IDKindCandidate:
		return candidateIDPrefix + id.Value
	default:
		return id.Value
	}
}

// ParseResolvedID recovers a tagged identifier from its wire text.
func ParseResolvedID(s string) ResolvedID {
	switch {
	case strings.HasPrefix(s, packageIDPrefix):
		return NewPackageID(strings.TrimPrefix(s, packageIDPrefix))
	case strings.HasPrefix(s, candidateIDPrefix):
		return NewCandidateID(strings.TrimPrefix(s, candidateIDPrefix))
	default:
		return NewProcedureID(s)
	}
}
