package schema

// Field is a canonical subject-profile field. The vocabulary is closed:
// the detector never invents canonical names and the scorer only compares
// fields listed here.
type Field string

const (
	FieldName        Field = "name"
	FieldDOB         Field = "dob"
	FieldID          Field = "id"
	FieldCustomerID  Field = "customer_id"
	FieldBankID      Field = "bank_id"
	FieldPassport    Field = "passport"
	FieldSSN         Field = "ssn"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldAddress     Field = "address"
	FieldNationality Field = "nationality"
	FieldOccupation  Field = "occupation"
	FieldCompany     Field = "company"
)

// Class selects the comparison policy applied to a field during scoring.
type Class int

const (
	// ClassString fields compare fuzzily (normalized tokens, edit distance).
	ClassString Class = iota
	// ClassDate fields compare as exact calendar dates.
	ClassDate
	// ClassIdentifier fields compare as trimmed case-insensitive equality.
	ClassIdentifier
	// ClassPhone fields compare as digits-only equality.
	ClassPhone
)

func (c Class) String() string {
	switch c {
	case ClassString:
		return "string"
	case ClassDate:
		return "date"
	case ClassIdentifier:
		return "identifier"
	case ClassPhone:
		return "phone"
	}
	return "unknown"
}

// Definition ties a canonical field to its comparison class and the header
// synonyms the detector recognises for it.
type Definition struct {
	Field    Field
	Class    Class
	Synonyms []string
}

// vocabulary lists every canonical field. Order matters: when two canonical
// fields contend for the same native field at the same rule tier, the
// earlier entry claims it.
var vocabulary = []Definition{
	{FieldName, ClassString, []string{"name", "full_name", "first_name", "last_name", "given_name", "surname"}},
	{FieldDOB, ClassDate, []string{"dob", "date_of_birth", "birth_date", "birthdate", "born"}},
	{FieldID, ClassIdentifier, []string{"id", "user_id", "account_id", "identification", "identifier"}},
	{FieldCustomerID, ClassIdentifier, []string{"customer_id", "customer_number", "client_id"}},
	{FieldBankID, ClassIdentifier, []string{"bank_id", "bank_account", "account_number", "banking_id"}},
	{FieldPassport, ClassIdentifier, []string{"passport", "passport_number", "passport_id"}},
	{FieldSSN, ClassIdentifier, []string{"ssn", "social_security", "social_security_number"}},
	{FieldPhone, ClassPhone, []string{"phone", "phone_number", "mobile", "cell", "telephone", "contact"}},
	{FieldEmail, ClassString, []string{"email", "email_address", "mail", "e_mail"}},
	{FieldAddress, ClassString, []string{"address", "location", "residence", "home", "city", "state", "country"}},
	{FieldNationality, ClassString, []string{"nationality", "citizenship", "country_of_birth"}},
	{FieldOccupation, ClassString, []string{"occupation", "job", "profession", "work", "employment"}},
	{FieldCompany, ClassString, []string{"company", "employer", "organization", "firm", "workplace"}},
}

// Vocabulary returns the canonical field definitions in declaration order.
func Vocabulary() []Definition {
	defs := make([]Definition, len(vocabulary))
	copy(defs, vocabulary)
	return defs
}

// Lookup returns the definition of a canonical field.
func Lookup(f Field) (Definition, bool) {
	for _, def := range vocabulary {
		if def.Field == f {
			return def, true
		}
	}
	return Definition{}, false
}

// Identifiers returns the canonical fields compared as exact identifiers.
// The aggregator joins results across sources on these fields.
func Identifiers() []Field {
	var out []Field
	for _, def := range vocabulary {
		if def.Class == ClassIdentifier {
			out = append(out, def.Field)
		}
	}
	return out
}

// Canonicalize resolves a field name (canonical or synonym, any casing or
// separator style) to its canonical field. Used to standardize externally
// produced profiles against the vocabulary.
func Canonicalize(name string) (Field, bool) {
	key := squash(name)
	if key == "" {
		return "", false
	}
	for _, def := range vocabulary {
		for _, syn := range def.Synonyms {
			if key == squash(syn) {
				return def.Field, true
			}
		}
	}
	return "", false
}
