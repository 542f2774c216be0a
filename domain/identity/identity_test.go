package identity

import (
	"errors"
	"testing"

	"edusync/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalID = "0190c7a0-0000-7000-8000-00000000000a"

func TestNewCanonicalisesUserID(t *testing.T) {
	for _, raw := range []string{
		canonicalID,
		"0190C7A0-0000-7000-8000-00000000000A",
		"{0190c7a0-0000-7000-8000-00000000000a}",
		"urn:uuid:0190c7a0-0000-7000-8000-00000000000a",
		"0190c7a000007000800000000000000a",
	} {
		t.Run(raw, func(t *testing.T) {
			id, err := New(raw, "Instructor", "")
			require.NoError(t, err)
			assert.Equal(t, canonicalID, id.UserID)
		})
	}
}

func TestNewRejectsBadClaims(t *testing.T) {
	_, err := New("", "Student", "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = New("42", "Student", "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = New(canonicalID, "Admin", "")
	assert.True(t, errors.Is(err, shared.ErrForbidden))
}

func TestRequire(t *testing.T) {
	id, err := New(canonicalID, "student", "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, id.Role)
	assert.True(t, id.Is(RoleStudent))

	assert.NoError(t, id.Require(RoleInstructor, RoleStudent))
	err = id.Require(RoleInstructor)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Equal(t, "Instructor", shared.DetailsOf(err)["allowed_roles"])
}
