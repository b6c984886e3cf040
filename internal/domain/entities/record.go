package entities

import "strings"

// Record is one stored identity datum, e.g. a KTP number or a bank account.
// Attr1..Attr5 carry type-specific supplementary fields (Attr1 is the bank
// name for a bank account).
type Record struct {
	ID     int64  `json:"id"`
	TypeID int64  `json:"type_id"`
	Value  string `json:"value"`
	Attr1  string `json:"attr1,omitempty"`
	Attr2  string `json:"attr2,omitempty"`
	Attr3  string `json:"attr3,omitempty"`
	Attr4  string `json:"attr4,omitempty"`
	Attr5  string `json:"attr5,omitempty"`
}

// Attr returns the supplementary attribute in the given 1-based slot.
func (r *Record) Attr(slot int) string {
	switch slot {
	case 1:
		return r.Attr1
	case 2:
		return r.Attr2
	case 3:
		return r.Attr3
	case 4:
		return r.Attr4
	case 5:
		return r.Attr5
	default:
		return ""
	}
}

// SetAttr sets the supplementary attribute in the given 1-based slot.
// Out-of-range slots are ignored.
func (r *Record) SetAttr(slot int, v string) {
	switch slot {
	case 1:
		r.Attr1 = v
	case 2:
		r.Attr2 = v
	case 3:
		r.Attr3 = v
	case 4:
		r.Attr4 = v
	case 5:
		r.Attr5 = v
	}
}

// RecordWithType is a read-only projection of a Record joined with the name of
// its RecordType. It is computed per query and never persisted.
type RecordWithType struct {
	Record
	TypeName     string `json:"type_name"`
	TypeIsCustom bool   `json:"type_is_custom"`
}

// Kind resolves the record's type kind.
func (r *RecordWithType) Kind() Kind {
	return KindOf(RecordType{ID: r.TypeID, Name: r.TypeName, IsCustom: r.TypeIsCustom})
}

// ItemKind returns the list-row layout for the record.
func (r *RecordWithType) ItemKind() ItemKind {
	return ItemKindOf(r.Kind())
}

// IsBlank reports whether a user-entered string is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
