// Package wizard models the guided "generate card" flow: pick a member without
// a card, capture or review their details, acknowledge, then commit. It holds
// no durable state; committing is done by the wizard use case.
package wizard

import (
	"time"

	"enrollment/internal/domain/entity"
	"enrollment/internal/domain/validation"

	"github.com/pkg/errors"
)

// Step is a position in the wizard.
type Step int

const (
	StepSelectMember Step = iota
	StepCaptureFields
	StepReview
	StepCommitted
)

func (s Step) String() string {
	switch s {
	case StepSelectMember:
		return "select_member"
	case StepCaptureFields:
		return "capture_fields"
	case StepReview:
		return "review"
	case StepCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

var (
	ErrNotSelectable    = errors.New("member already has a card")
	ErrWrongStep        = errors.New("operation not allowed at this step")
	ErrNotAcknowledged  = errors.New("details must be acknowledged before commit")
	ErrFieldReadOnly    = errors.New("field is read-only for a locked member")
	ErrUnknownField     = errors.New("unknown field")
	ErrValidationFailed = errors.New("captured details are invalid")
)

// Candidate is a member listed on the selection step.
type Candidate struct {
	Member     *entity.Member `json:"member"`
	Selectable bool           `json:"selectable"`
}

// Candidates lists every member; those that already have a card are shown disabled.
func Candidates(members []*entity.Member) []Candidate {
	candidates := make([]Candidate, 0, len(members))
	for _, member := range members {
		candidates = append(candidates, Candidate{
			Member:     member,
			Selectable: !member.HasCard(),
		})
	}

	return candidates
}

// SummaryItem is one row of the review step.
type SummaryItem struct {
	Field     entity.FieldName `json:"field"`
	Value     string           `json:"value"`
	Mandatory bool             `json:"mandatory"`
	ReadOnly  bool             `json:"read_only"`
}

// Wizard is a single pass through the flow for one member.
type Wizard struct {
	now          time.Time
	step         Step
	member       *entity.Member
	values       entity.FieldValues
	canonical    entity.FieldValues
	acknowledged bool
}

// New returns a wizard on the selection step. Dates of birth are checked
// against now.
func New(now time.Time) *Wizard {
	return &Wizard{now: now, step: StepSelectMember}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Member returns the selected member, or nil before selection.
func (w *Wizard) Member() *entity.Member { return w.member }

// Acknowledged reports whether the reviewed details were confirmed.
func (w *Wizard) Acknowledged() bool { return w.acknowledged }

// Select picks the member and seeds the capture step with its stored values.
func (w *Wizard) Select(member *entity.Member) error {
	if w.step != StepSelectMember {
		return errors.Wrapf(ErrWrongStep, "select at %s", w.step)
	}
	if member.HasCard() {
		return ErrNotSelectable
	}

	w.member = member
	w.values = member.Values()
	w.step = StepCaptureFields

	return nil
}

// SetField records a raw value. Mandatory fields of a locked member cannot
// change; resubmitting the stored value in any accepted spelling is a no-op.
func (w *Wizard) SetField(name entity.FieldName, value string) error {
	if w.step != StepCaptureFields {
		return errors.Wrapf(ErrWrongStep, "set %s at %s", name, w.step)
	}
	if !name.IsKnown() {
		return errors.Wrap(ErrUnknownField, string(name))
	}
	if w.readOnly(name) {
		canonical, fieldErr := validation.Field(name, value, w.now)
		if fieldErr == nil && canonical == w.values[name] {
			return nil
		}

		return errors.Wrap(ErrFieldReadOnly, string(name))
	}

	w.values[name] = value

	return nil
}

// Advance moves from capture to review. Every failing field is returned at
// once and the wizard stays on the capture step.
func (w *Wizard) Advance() ([]validation.FieldError, error) {
	if w.step != StepCaptureFields {
		return nil, errors.Wrapf(ErrWrongStep, "advance at %s", w.step)
	}

	canonical, fieldErrs := validation.Lock(w.values, w.now)
	if len(fieldErrs) > 0 {
		return fieldErrs, ErrValidationFailed
	}

	w.canonical = canonical
	w.acknowledged = false
	w.step = StepReview

	return nil, nil
}

// Back returns to the previous step. Leaving the capture step drops the selection.
func (w *Wizard) Back() error {
	switch w.step {
	case StepReview:
		w.step = StepCaptureFields
		w.acknowledged = false
		w.canonical = nil
	case StepCaptureFields:
		w.step = StepSelectMember
		w.member = nil
		w.values = nil
	default:
		return errors.Wrapf(ErrWrongStep, "back at %s", w.step)
	}

	return nil
}

// Acknowledge records the user's confirmation that the reviewed details are correct.
func (w *Wizard) Acknowledge() error {
	if w.step != StepReview {
		return errors.Wrapf(ErrWrongStep, "acknowledge at %s", w.step)
	}
	w.acknowledged = true

	return nil
}

// CanCommit reports whether the commit action is enabled.
func (w *Wizard) CanCommit() bool {
	return w.step == StepReview && w.acknowledged
}

// Values returns the validated canonical values shown on review.
func (w *Wizard) Values() entity.FieldValues {
	return entity.FieldValues{}.Merge(w.canonical)
}

// Summary lists the reviewed values in display order.
func (w *Wizard) Summary() []SummaryItem {
	items := make([]SummaryItem, 0, len(entity.AllFields))
	for _, name := range entity.AllFields {
		items = append(items, SummaryItem{
			Field:     name,
			Value:     w.canonical[name],
			Mandatory: name.IsMandatory(),
			ReadOnly:  w.readOnly(name),
		})
	}

	return items
}

// Commit marks the flow finished once the caller has persisted it.
func (w *Wizard) Commit() error {
	if w.step != StepReview {
		return errors.Wrapf(ErrWrongStep, "commit at %s", w.step)
	}
	if !w.acknowledged {
		return ErrNotAcknowledged
	}
	w.step = StepCommitted

	return nil
}

func (w *Wizard) readOnly(name entity.FieldName) bool {
	return w.member != nil && w.member.IsLocked() && name.IsMandatory()
}
