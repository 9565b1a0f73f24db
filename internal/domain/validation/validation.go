// Package validation holds the member field rules. Every function is pure: the
// caller supplies the clock so age checks are reproducible.
package validation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"enrollment/internal/domain/entity"
)

// Reason is the machine-readable cause of a field failure.
type Reason string

const (
	ReasonRequired          Reason = "required"
	ReasonTooShort          Reason = "too_short"
	ReasonInvalidCharacters Reason = "invalid_characters"
	ReasonInvalidDate       Reason = "invalid_date"
	ReasonAgeOutOfRange     Reason = "age_out_of_range"
	ReasonNotAllowed        Reason = "not_allowed"
	ReasonInvalidFormat     Reason = "invalid_format"
	ReasonNotNumeric        Reason = "not_numeric"
	ReasonOutOfRange        Reason = "out_of_range"
	ReasonUnknownField      Reason = "unknown_field"
	ReasonInvalidSlot       Reason = "invalid_slot"
)

const (
	minNameLength = 3
	minAge        = 0
	maxAge        = 100
	minHeightCm   = 50
	maxHeightCm   = 250
	minWeightKg   = 1
	maxWeightKg   = 200
)

// FieldError describes why a single field was rejected.
type FieldError struct {
	Reason  Reason           `json:"code"`
	Field   entity.FieldName `json:"field"`
	Message string           `json:"message"`
}

func (e FieldError) Error() string {
	return string(e.Field) + ": " + e.Message
}

var (
	mobilePattern      = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nationalIDAPattern = regexp.MustCompile(`^[0-9]{12}$`)
	nationalIDBPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	postalCodePattern  = regexp.MustCompile(`^[1-9][0-9]{5}$`)

	dateLayouts = []string{entity.DateLayout, "02-01-2006", "02/01/2006"}

	genders     = []string{"Male", "Female", "Other"}
	bloodGroups = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}
)

// Field validates one raw value and returns its canonical form. An empty value
// is accepted for optional fields and reported as required for mandatory ones.
func Field(name entity.FieldName, raw string, now time.Time) (string, *FieldError) {
	value := strings.TrimSpace(raw)

	if !name.IsKnown() {
		fieldErr := UnknownField(name)

		return "", &fieldErr
	}
	if value == "" {
		if name.IsMandatory() {
			return "", fail(name, ReasonRequired, "is required")
		}

		return "", nil
	}

	switch name {
	case entity.FieldFullName:
		return fullName(value)
	case entity.FieldDateOfBirth:
		return dateOfBirth(value, now)
	case entity.FieldGender:
		return oneOf(name, value, genders)
	case entity.FieldBloodGroup:
		return oneOf(name, value, bloodGroups)
	case entity.FieldMobile:
		return pattern(name, value, mobilePattern, "must be 10 digits starting with 6, 7, 8 or 9")
	case entity.FieldEmail:
		return email(value)
	case entity.FieldHeightCm:
		return number(name, value, minHeightCm, maxHeightCm)
	case entity.FieldWeightKg:
		return number(name, value, minWeightKg, maxWeightKg)
	case entity.FieldNationalIDA:
		stripped := strings.NewReplacer(" ", "", "-", "").Replace(value)

		return pattern(name, stripped, nationalIDAPattern, "must be 12 digits")
	case entity.FieldNationalIDB:
		return pattern(name, strings.ToUpper(value), nationalIDBPattern, "must be 5 letters, 4 digits and 1 letter")
	case entity.FieldPostalCode:
		return pattern(name, value, postalCodePattern, "must be 6 digits and not start with 0")
	default:
		// address, city and region only need to be present.
		return value, nil
	}
}

// Draft validates the supplied fields of a partial save. An empty value is a
// valid request to clear the field. Errors are ordered like entity.AllFields.
func Draft(values entity.FieldValues, now time.Time) (entity.FieldValues, []FieldError) {
	canonical := make(entity.FieldValues, len(values))
	var errs []FieldError

	for _, name := range orderedNames(values) {
		raw := values[name]
		if name.IsKnown() && strings.TrimSpace(raw) == "" {
			canonical[name] = ""

			continue
		}
		value, fieldErr := Field(name, raw, now)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)

			continue
		}
		canonical[name] = value
	}

	return canonical, errs
}

// Lock applies the cross-field rule: every mandatory field must be present and
// valid, and optional fields must be valid when present.
func Lock(values entity.FieldValues, now time.Time) (entity.FieldValues, []FieldError) {
	canonical := make(entity.FieldValues, len(entity.AllFields))
	var errs []FieldError

	for _, name := range entity.AllFields {
		value, fieldErr := Field(name, values[name], now)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)

			continue
		}
		canonical[name] = value
	}
	for _, name := range orderedNames(values) {
		if !name.IsKnown() {
			errs = append(errs, UnknownField(name))
		}
	}

	return canonical, errs
}

// InvalidSlot reports a relation slot the plan purchase does not cover.
func InvalidSlot(slot entity.RelationSlot) FieldError {
	return *fail(entity.FieldRelationSlot, ReasonInvalidSlot, "slot "+strconv.Quote(string(slot))+" is not part of the plan")
}

// UnknownField reports a field name that is not a member field.
func UnknownField(name entity.FieldName) FieldError {
	return *fail(name, ReasonUnknownField, "is not a member field")
}

// Age returns the age in whole years on now, comparing month and day.
func Age(dob, now time.Time) int {
	y, m, d := now.Date()
	age := y - dob.Year()
	if m < dob.Month() || (m == dob.Month() && d < dob.Day()) {
		age--
	}

	return age
}

func fullName(value string) (string, *FieldError) {
	if utf8.RuneCountInString(value) < minNameLength {
		return "", fail(entity.FieldFullName, ReasonTooShort, "must be at least 3 characters")
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "", fail(entity.FieldFullName, ReasonInvalidCharacters, "may only contain letters and spaces")
		}
	}

	return value, nil
}

func dateOfBirth(value string, now time.Time) (string, *FieldError) {
	for _, layout := range dateLayouts {
		dob, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if age := Age(dob, now); age < minAge || age > maxAge {
			return "", fail(entity.FieldDateOfBirth, ReasonAgeOutOfRange, "age must be between 0 and 100 years")
		}

		return dob.Format(entity.DateLayout), nil
	}

	return "", fail(entity.FieldDateOfBirth, ReasonInvalidDate, "must be a valid date")
}

func oneOf(name entity.FieldName, value string, allowed []string) (string, *FieldError) {
	for _, option := range allowed {
		if strings.EqualFold(option, value) {
			return option, nil
		}
	}

	return "", fail(name, ReasonNotAllowed, "must be one of "+strings.Join(allowed, ", "))
}

func pattern(name entity.FieldName, value string, re *regexp.Regexp, message string) (string, *FieldError) {
	if !re.MatchString(value) {
		return "", fail(name, ReasonInvalidFormat, message)
	}

	return value, nil
}

func email(value string) (string, *FieldError) {
	if !emailPattern.MatchString(value) {
		return "", fail(entity.FieldEmail, ReasonInvalidFormat, "must be a valid email address")
	}
	domain := value[strings.IndexByte(value, '@')+1:]
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") || strings.Contains(domain, "..") {
		return "", fail(entity.FieldEmail, ReasonInvalidFormat, "must be a valid email address")
	}

	return value, nil
}

func number(name entity.FieldName, value string, lo, hi float64) (string, *FieldError) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fail(name, ReasonNotNumeric, "must be a number")
	}
	if f < lo || f > hi {
		return "", fail(name, ReasonOutOfRange,
			"must be between "+strconv.FormatFloat(lo, 'f', -1, 64)+" and "+strconv.FormatFloat(hi, 'f', -1, 64))
	}

	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// orderedNames returns the keys of values, known fields first in display order.
func orderedNames(values entity.FieldValues) []entity.FieldName {
	names := make([]entity.FieldName, 0, len(values))
	var unknown []entity.FieldName
	for _, name := range entity.AllFields {
		if _, ok := values[name]; ok {
			names = append(names, name)
		}
	}
	for name := range values {
		if !name.IsKnown() {
			unknown = append(unknown, name)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })

	return append(names, unknown...)
}

func fail(name entity.FieldName, reason Reason, message string) *FieldError {
	return &FieldError{Reason: reason, Field: name, Message: message}
}
