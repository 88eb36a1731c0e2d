// internal/domain/reftype.go
package domain

import (
	"regexp"
	"strings"
)

type RefType string

const (
	RefTypeAccount RefType = "ACCOUNT"
	RefTypeInvoice RefType = "INVOICE"
	RefTypePolicy  RefType = "POLICY"
	RefTypeMeter   RefType = "METER"
	RefTypeMSISDN  RefType = "MSISDN"
	RefTypeOther   RefType = "OTHER"
)

// refTypeRule binds a reference type to the bill reference format agreed
// with the payment switch. The set is closed: an unknown ref type is a
// rejection, not a fallthrough.
type refTypeRule struct {
	pattern     *regexp.Regexp
	description string
}

var refTypeRules = map[RefType]refTypeRule{
	RefTypeAccount: {regexp.MustCompile(`^\d{4,12}$`), "4-12 digit account number"},
	RefTypeInvoice: {regexp.MustCompile(`^INV[A-Za-z0-9-]{3,20}$`), "INV-prefixed invoice number"},
	RefTypePolicy:  {regexp.MustCompile(`^POL[A-Za-z0-9]{4,16}$`), "POL-prefixed policy number"},
	RefTypeMeter:   {regexp.MustCompile(`^MTR\d{4,12}$`), "MTR-prefixed meter number"},
	RefTypeMSISDN:  {regexp.MustCompile(`^254\d{9}$`), "Kenyan MSISDN in international format"},
	RefTypeOther:   {regexp.MustCompile(`^[A-Za-z0-9_.-]{1,50}$`), "free-form reference"},
}

// KnownRefType reports whether the ref type is one of the enumerated values
// agreed with the switch.
func KnownRefType(rt RefType) bool {
	_, ok := refTypeRules[RefType(strings.ToUpper(string(rt)))]
	return ok
}

// ValidBillRef reports whether the bill reference matches the format rule
// for the given ref type.
func ValidBillRef(rt RefType, billRef string) bool {
	rule, ok := refTypeRules[RefType(strings.ToUpper(string(rt)))]
	if !ok {
		return false
	}
	return rule.pattern.MatchString(billRef)
}

// BillRefRuleDescription returns the human-readable format rule, for
// rejection log lines.
func BillRefRuleDescription(rt RefType) string {
	rule, ok := refTypeRules[RefType(strings.ToUpper(string(rt)))]
	if !ok {
		return "unknown reference type"
	}
	return rule.description
}

// InferRefType derives a ref type from the bill reference prefix when the
// switch omits it. Airtel C2B payloads do not always carry the type.
func InferRefType(billRef string) RefType {
	switch {
	case strings.HasPrefix(billRef, "INV"):
		return RefTypeInvoice
	case strings.HasPrefix(billRef, "MTR"):
		return RefTypeMeter
	case strings.HasPrefix(billRef, "POL"):
		return RefTypePolicy
	case strings.HasPrefix(billRef, "254"):
		return RefTypeMSISDN
	default:
		return RefTypeAccount
	}
}

// Normalize upper-cases the ref type. The switch is inconsistent about
// casing, so lookups must not be.
func (rt RefType) Normalize() RefType {
	return RefType(strings.ToUpper(string(rt)))
}
