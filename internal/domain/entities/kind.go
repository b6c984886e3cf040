package entities

// Kind identifies a built-in record type independent of its display name.
// Custom types always map to KindCustom.
type Kind int

// Built-in kinds, numbered like the ids the catalog assigns on a fresh seed.
const (
	KindCustom Kind = iota
	KindKTP
	KindPhone
	KindAddress
	KindPLN
	KindPDAM
	KindTaxID
	KindBankAccount
	KindFamilyCard
	KindVehicleRegistration
	KindCreditCard
	KindSocialSecurity
	KindEmail
)

var kindNames = map[Kind]string{
	KindCustom:              "custom",
	KindKTP:                 "ktp",
	KindPhone:               "phone",
	KindAddress:             "address",
	KindPLN:                 "pln",
	KindPDAM:                "pdam",
	KindTaxID:               "tax_id",
	KindBankAccount:         "bank_account",
	KindFamilyCard:          "family_card",
	KindVehicleRegistration: "vehicle_registration",
	KindCreditCard:          "credit_card",
	KindSocialSecurity:      "social_security",
	KindEmail:               "email",
}

// String returns a stable, lowercase identifier for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf resolves the kind of a record type. A non-custom type whose id lies
// within the seeded range is a built-in; everything else is custom.
func KindOf(t RecordType) Kind {
	if t.IsCustom {
		return KindCustom
	}
	if t.ID >= 1 && t.ID <= int64(len(BuiltinRecordTypes)) {
		return Kind(t.ID)
	}
	return KindCustom
}

// InputKind describes the keyboard/validation shape of a single input.
type InputKind string

// Input kinds understood by presentation layers.
const (
	InputNumber        InputKind = "number"
	InputText          InputKind = "text"
	InputPhone         InputKind = "phone"
	InputEmail         InputKind = "email"
	InputPostalAddress InputKind = "postal_address"
)

// AttrField describes one supplementary attribute shown by a form.
type AttrField struct {
	Slot  int // 1..5, maps to Record.Attr1..Attr5
	Label string
	Input InputKind
}

// FormDescriptor is the presentation shape for adding or editing a record.
type FormDescriptor struct {
	Value InputKind
	Attrs []AttrField
}

// FormFor returns the form shape for a kind.
func FormFor(k Kind) FormDescriptor {
	switch k {
	case KindAddress:
		return FormDescriptor{Value: InputPostalAddress}
	case KindKTP:
		return FormDescriptor{Value: InputNumber}
	case KindEmail:
		return FormDescriptor{Value: InputEmail}
	case KindPhone:
		return FormDescriptor{Value: InputPhone}
	case KindBankAccount:
		return FormDescriptor{
			Value: InputNumber,
			Attrs: []AttrField{{Slot: 1, Label: "Nama Bank", Input: InputText}},
		}
	default:
		return FormDescriptor{Value: InputNumber}
	}
}

// ItemKind selects the list-row layout for a record.
type ItemKind string

// Row layouts.
const (
	ItemDefault     ItemKind = "default"
	ItemKTP         ItemKind = "ktp"
	ItemBankAccount ItemKind = "bank_account"
)

// ItemKindOf maps a kind to its list-row layout.
func ItemKindOf(k Kind) ItemKind {
	switch k {
	case KindKTP:
		return ItemKTP
	case KindBankAccount:
		return ItemBankAccount
	default:
		return ItemDefault
	}
}
