package errors

import (
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIssuanceError_FollowsCause(t *testing.T) {
	tests := []struct {
		name       string
		cause      error
		wantStatus int
		wantAction Action
		wantCause  Code
	}{
		{
			name:       "card issued by a concurrent request",
			cause:      pkgerrors.Wrap(ErrCardAlreadyIssued, "failed to attach card"),
			wantStatus: http.StatusConflict,
			wantAction: ActionNone,
			wantCause:  CodeCardAlreadyIssued,
		},
		{
			name:       "plan expired",
			cause:      pkgerrors.WithStack(ErrPlanExpired),
			wantStatus: http.StatusConflict,
			wantAction: ActionNone,
			wantCause:  CodePlanExpired,
		},
		{
			name:       "database failure",
			cause:      NewDatabaseExecuteError(pkgerrors.New("conn reset"), "failed to create card"),
			wantStatus: http.StatusInternalServerError,
			wantAction: ActionRetry,
			wantCause:  CodeDatabaseExecuteFailed,
		},
		{
			name:       "unclassified failure",
			cause:      pkgerrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantAction: ActionRetry,
			wantCause:  CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewIssuanceError("member-1", "locked", tt.cause)

			assert.Equal(t, CodeCardIssuanceFailed, err.ErrorCode())
			assert.Equal(t, tt.wantStatus, err.HTTPCode())
			assert.Equal(t, tt.wantAction, err.Action())
			details, ok := err.Details().(map[string]any)
			if assert.True(t, ok) {
				assert.Equal(t, tt.wantCause, details["cause"])
				assert.Equal(t, "locked", details["lock_state"])
			}
		})
	}
}

func TestBaseError_IsComparesCodes(t *testing.T) {
	assert.ErrorIs(t, pkgerrors.WithStack(ErrCardNotFound), ErrNotFound)
	assert.NotErrorIs(t, ErrCardNotFound, ErrMemberLocked)
}
