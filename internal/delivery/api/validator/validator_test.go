package validator

import (
	"testing"

	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitRequest struct {
	MemberID     string            `json:"member_id" validate:"required,uuid"`
	RelationSlot string            `json:"relation_slot" validate:"required"`
	Fields       map[string]string `json:"fields" validate:"omitempty,min=1"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&commitRequest{
		MemberID:     "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		RelationSlot: "self",
	}))

	err := v.Validate(&commitRequest{MemberID: "not-a-uuid"})

	var validationErr *domainerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []validation.FieldError{
		{Field: entity.FieldName("member_id"), Reason: validation.ReasonInvalidFormat, Message: "must be a UUID"},
		{Field: entity.FieldRelationSlot, Reason: validation.ReasonRequired, Message: "is required"},
	}, validationErr.Fields())
}
