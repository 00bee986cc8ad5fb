package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "job not found"},
			want: "job not found",
		},
		{
			name: "with cause",
			err:  &AppError{Code: ErrCodeProvider, Message: "translate failed", Cause: errors.New("status 503")},
			want: "translate failed: status 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapChain(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(cause, ErrCodeInternal, "inner"))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInternal(err))
	assert.Equal(t, ErrCodeInternal, GetCode(err))
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "x %d", 1))
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("eof"), ErrCodeResolution, "resolve %s %s", "post", "42")
	require.NotNil(t, err)
	assert.Equal(t, "resolve post 42: eof", err.Error())
	assert.True(t, IsResolution(err))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  ErrorCode
	}{
		{"not found", NotFound("x"), IsNotFound, ErrCodeNotFound},
		{"not foundf", NotFoundf("job %s", "1"), IsNotFound, ErrCodeNotFound},
		{"conflict", Conflict("x"), IsConflict, ErrCodeConflict},
		{"validation", Validation("x"), IsValidation, ErrCodeValidation},
		{"validationf", Validationf("bad %d", 1), IsValidation, ErrCodeValidation},
		{"internal", Internal("x"), IsInternal, ErrCodeInternal},
		{"internalf", Internalf("x %d", 2), IsInternal, ErrCodeInternal},
		{"resolution", Resolutionf("no %s", "target"), IsResolution, ErrCodeResolution},
		{"resource limit", ResourceLimitf("%d bytes", 10), IsResourceLimit, ErrCodeResourceLimit},
		{"provider", New(ErrCodeProvider, "x"), IsProvider, ErrCodeProvider},
		{"locked", New(ErrCodeLocked, "x"), IsLocked, ErrCodeLocked},
		{"timeout", New(ErrCodeTimeout, "x"), IsTimeout, ErrCodeTimeout},
		{"canceled", New(ErrCodeCanceled, "x"), IsCanceled, ErrCodeCanceled},
		{"foreign key", New(ErrCodeForeignKey, "x"), IsForeignKey, ErrCodeForeignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.code, GetCode(tt.err))
		})
	}
}

func TestIsHelpers_NonAppError(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsNotFound(plain))
	assert.False(t, IsProvider(plain))
	assert.False(t, IsNotFound(nil))
	assert.Empty(t, GetCode(plain))
	assert.Empty(t, GetField(plain))
}

func TestValidationFieldAndWithField(t *testing.T) {
	err := ValidationField("object_id", "object id is required")
	assert.Equal(t, "object_id", GetField(err))

	base := Validation("bad field")
	named := base.WithField("field")
	assert.Equal(t, "field", GetField(named))
	assert.Empty(t, base.Field, "WithField must not mutate the receiver")

	var nilErr *AppError
	assert.Nil(t, nilErr.WithField("x"))
}
