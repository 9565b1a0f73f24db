package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LockState is the enrollment state of a member record.
type LockState string

const (
	LockStateEmpty  LockState = "empty"
	LockStateDraft  LockState = "draft"
	LockStateLocked LockState = "locked"
)

// DateLayout is the canonical storage format for dates of birth.
const DateLayout = "2006-01-02"

// FieldName names an editable member field. The values double as JSON keys.
type FieldName string

const (
	FieldFullName     FieldName = "full_name"
	FieldDateOfBirth  FieldName = "date_of_birth"
	FieldGender       FieldName = "gender"
	FieldBloodGroup   FieldName = "blood_group"
	FieldMobile       FieldName = "mobile"
	FieldEmail        FieldName = "email"
	FieldHeightCm     FieldName = "height_cm"
	FieldWeightKg     FieldName = "weight_kg"
	FieldNationalIDA  FieldName = "national_id_a"
	FieldNationalIDB  FieldName = "national_id_b"
	FieldAddress      FieldName = "address"
	FieldCity         FieldName = "city"
	FieldRegion       FieldName = "region"
	FieldPostalCode   FieldName = "postal_code"
	FieldRelationSlot FieldName = "relation_slot"
)

// AllFields lists the editable fields in display order.
var AllFields = []FieldName{
	FieldFullName,
	FieldDateOfBirth,
	FieldGender,
	FieldBloodGroup,
	FieldMobile,
	FieldEmail,
	FieldHeightCm,
	FieldWeightKg,
	FieldNationalIDA,
	FieldNationalIDB,
	FieldAddress,
	FieldCity,
	FieldRegion,
	FieldPostalCode,
}

// IsMandatory reports whether the field must be valid before a member can be locked.
func (f FieldName) IsMandatory() bool {
	return f != FieldHeightCm && f != FieldWeightKg
}

// IsKnown reports whether f is one of AllFields.
func (f FieldName) IsKnown() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}

	return false
}

// FieldValues maps field names to raw or canonical string values.
type FieldValues map[FieldName]string

// Merge returns a copy of v overlaid with other.
func (v FieldValues) Merge(other FieldValues) FieldValues {
	merged := make(FieldValues, len(v)+len(other))
	for k, val := range v {
		merged[k] = val
	}
	for k, val := range other {
		merged[k] = val
	}

	return merged
}

// Member is a person enrolled, or to be enrolled, under a plan purchase.
type Member struct {
	ID             uuid.UUID    `json:"id"`
	PlanPurchaseID uuid.UUID    `json:"plan_purchase_id"`
	RelationSlot   RelationSlot `json:"relation_slot"` // Fixed at creation.

	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender"`
	BloodGroup  string     `json:"blood_group"`
	Mobile      string     `json:"mobile"`
	Email       string     `json:"email"`
	HeightCm    *float64   `json:"height_cm,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	NationalIDA string     `json:"national_id_a"`
	NationalIDB string     `json:"national_id_b"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Region      string     `json:"region"`
	PostalCode  string     `json:"postal_code"`

	LockState LockState  `json:"lock_state"`
	CardID    *uuid.UUID `json:"card_id,omitempty"` // Set once, when a card is requested.
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsLocked reports whether the mandatory data of the member is frozen.
func (m *Member) IsLocked() bool {
	return m.LockState == LockStateLocked
}

// HasCard reports whether a card has been requested for the member.
func (m *Member) HasCard() bool {
	return m.CardID != nil
}

// Values returns the stored fields as canonical strings. Unset fields are omitted.
func (m *Member) Values() FieldValues {
	values := FieldValues{}
	put := func(name FieldName, value string) {
		if value != "" {
			values[name] = value
		}
	}

	put(FieldFullName, m.FullName)
	if m.DateOfBirth != nil {
		put(FieldDateOfBirth, m.DateOfBirth.Format(DateLayout))
	}
	put(FieldGender, m.Gender)
	put(FieldBloodGroup, m.BloodGroup)
	put(FieldMobile, m.Mobile)
	put(FieldEmail, m.Email)
	if m.HeightCm != nil {
		put(FieldHeightCm, strconv.FormatFloat(*m.HeightCm, 'f', -1, 64))
	}
	if m.WeightKg != nil {
		put(FieldWeightKg, strconv.FormatFloat(*m.WeightKg, 'f', -1, 64))
	}
	put(FieldNationalIDA, m.NationalIDA)
	put(FieldNationalIDB, m.NationalIDB)
	put(FieldAddress, m.Address)
	put(FieldCity, m.City)
	put(FieldRegion, m.Region)
	put(FieldPostalCode, m.PostalCode)

	return values
}

// Set stores a canonical value. An empty value clears the field.
func (m *Member) Set(name FieldName, value string) error {
	switch name {
	case FieldFullName:
		m.FullName = value
	case FieldDateOfBirth:
		if value == "" {
			m.DateOfBirth = nil

			return nil
		}
		dob, err := time.Parse(DateLayout, value)
		if err != nil {
			return errors.Wrapf(err, "invalid canonical date of birth %q", value)
		}
		m.DateOfBirth = &dob
	case FieldGender:
		m.Gender = value
	case FieldBloodGroup:
		m.BloodGroup = value
	case FieldMobile:
		m.Mobile = value
	case FieldEmail:
		m.Email = value
	case FieldHeightCm:
		v, err := parseOptionalFloat(value)
		if err != nil {
			return errors.Wrap(err, "invalid canonical height")
		}
		m.HeightCm = v
	case FieldWeightKg:
		v, err := parseOptionalFloat(value)
		if err != nil {
			return errors.Wrap(err, "invalid canonical weight")
		}
		m.WeightKg = v
	case FieldNationalIDA:
		m.NationalIDA = value
	case FieldNationalIDB:
		m.NationalIDB = value
	case FieldAddress:
		m.Address = value
	case FieldCity:
		m.City = value
	case FieldRegion:
		m.Region = value
	case FieldPostalCode:
		m.PostalCode = value
	default:
		return errors.Errorf("unknown member field %q", name)
	}

	return nil
}

// Apply stores every value of canonical.
func (m *Member) Apply(canonical FieldValues) error {
	for name, value := range canonical {
		if err := m.Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

func parseOptionalFloat(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}

	return &f, nil
}
