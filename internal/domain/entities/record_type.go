package entities

// RecordType is a category of Record. Built-in types are seeded by the catalog;
// custom types are added by the user.
type RecordType struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsUnique bool   `json:"is_unique"` // At most one Record of this type may exist.
	IsCustom bool   `json:"is_custom"`
}

// BuiltinRecordTypes is the fixed catalog seeded on first run and after a reset.
// Order matters: ids are assigned sequentially from 1 in this order, and Kind
// dispatch depends on it.
var BuiltinRecordTypes = []RecordType{
	{Name: "KTP", IsUnique: true},
	{Name: "Nomor Handphone"},
	{Name: "Alamat"},
	{Name: "Nomor PLN"},
	{Name: "Nomor PDAM"},
	{Name: "Nomor NPWP", IsUnique: true},
	{Name: "Nomor Rekening Bank"},
	{Name: "Nomor Kartu Keluarga", IsUnique: true},
	{Name: "Nomor STNK"},
	{Name: "Nomor Kartu Kredit"},
	{Name: "Nomor BPJS"},
	{Name: "Alamat Email"},
}

// BuiltinTypeNames returns just the names of the built-in types.
func BuiltinTypeNames() []string {
	names := make([]string, len(BuiltinRecordTypes))
	for i, t := range BuiltinRecordTypes {
		names[i] = t.Name
	}
	return names
}

// IsBuiltinName checks if a type name belongs to the built-in catalog.
func IsBuiltinName(name string) bool {
	for _, t := range BuiltinRecordTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}
