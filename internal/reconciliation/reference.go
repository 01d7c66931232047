package reconciliation

import "strings"

const (
	referenceDelimiter = "|"

	// Legacy store identifiers are 24-character hex strings. Composite tokens
	// always carry the delimiter, so a bare 24-character token can only be a
	// record id.
	legacyIDLength = 24
)

// ReferenceKind classifies a decoded external reference.
type ReferenceKind int

const (
	ReferenceUnrecognized ReferenceKind = iota
	ReferenceByID
	ReferenceComposite
	ReferenceLegacyPlayerMonth
)

// String implements fmt.Stringer.
func (k ReferenceKind) String() string {
	switch k {
	case ReferenceByID:
		return "by_id"
	case ReferenceComposite:
		return "composite"
	case ReferenceLegacyPlayerMonth:
		return "legacy_player_month"
	default:
		return "unrecognized"
	}
}

// Reference is the decoded form of an external reference token.
type Reference struct {
	Kind ReferenceKind

	// PaymentID is set for ReferenceByID.
	PaymentID string

	// Composite fields. GuardianID and CategoryID are only set for
	// ReferenceComposite; PlayerID and Month are shared with
	// ReferenceLegacyPlayerMonth.
	PlayerID   string
	GuardianID string
	CategoryID string
	Month      string
}

// EncodeDirect builds the external reference for an existing payment record.
func EncodeDirect(paymentID string) string {
	return strings.TrimSpace(paymentID)
}

// EncodeComposite builds the external reference used when no payment record
// exists yet. PlayerID and month are mandatory; without them no correlation is
// possible and the empty string is returned.
func EncodeComposite(playerID, guardianID, categoryID, month string) string {
	if strings.TrimSpace(playerID) == "" || strings.TrimSpace(month) == "" {
		return ""
	}
	return strings.Join([]string{playerID, guardianID, categoryID, month}, referenceDelimiter)
}

// Decode classifies an external reference token. Classification is separate
// from resolution: a well-formed id token that matches no record still decodes
// as ReferenceByID and fails later at lookup.
func Decode(token string) Reference {
	parts := strings.Split(token, referenceDelimiter)

	switch len(parts) {
	case 1:
		if len(parts[0]) == legacyIDLength {
			return Reference{Kind: ReferenceByID, PaymentID: parts[0]}
		}
	case 4:
		if allNonEmpty(parts) {
			return Reference{
				Kind:       ReferenceComposite,
				PlayerID:   parts[0],
				GuardianID: parts[1],
				CategoryID: parts[2],
				Month:      parts[3],
			}
		}
	case 2:
		if allNonEmpty(parts) {
			return Reference{
				Kind:     ReferenceLegacyPlayerMonth,
				PlayerID: parts[0],
				Month:    parts[1],
			}
		}
	}

	return Reference{Kind: ReferenceUnrecognized}
}

func allNonEmpty(parts []string) bool {
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}
