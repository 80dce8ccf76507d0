package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessInfo_JSON(t *testing.T) {
	testCases := []struct {
		name    string
		details AccessDetails
		wire    string
	}{
		{
			name:    "attended",
			details: AttendedAccess{ContactPerson: "Ana", ContactPhone: "5512345678", ContactNotes: "Ring twice"},
			wire:    `{"accessType":"attended","contactPerson":"Ana","contactPhone":"5512345678","contactNotes":"Ring twice"}`,
		},
		{
			name:    "lockbox",
			details: LockboxAccess{Code: "4821"},
			wire:    `{"accessType":"unattended","method":"lockbox","lockboxCode":"4821"}`,
		},
		{
			name:    "smart lock",
			details: SmartLockAccess{Provider: "Nuki", Instructions: "Use the app"},
			wire:    `{"accessType":"unattended","method":"smart_lock","smartLockProvider":"Nuki","smartLockInstructions":"Use the app"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(AccessInfo{Details: tc.details})
			require.NoError(t, err)
			assert.JSONEq(t, tc.wire, string(data))

			var decoded AccessInfo
			require.NoError(t, json.Unmarshal([]byte(tc.wire), &decoded))
			assert.Equal(t, tc.details, decoded.Details)
		})
	}
}

func TestAccessInfo_DropsForeignFields(t *testing.T) {
	var decoded AccessInfo
	wire := `{"accessType":"unattended","method":"lockbox","lockboxCode":"1234","contactPerson":"Ana","smartLockProvider":"Nuki"}`
	require.NoError(t, json.Unmarshal([]byte(wire), &decoded))

	assert.Equal(t, LockboxAccess{Code: "1234"}, decoded.Details)
}

func TestAccessInfo_Null(t *testing.T) {
	data, err := json.Marshal(AccessInfo{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	p := Property{}
	require.NoError(t, json.Unmarshal([]byte(`{"accessInfo":null}`), &p))
	assert.Nil(t, p.AccessInfo)
}

func TestAccessInfo_UnknownVariant(t *testing.T) {
	var decoded AccessInfo
	err := json.Unmarshal([]byte(`{"accessType":"unattended","method":"doorman"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidAccessInfo)

	err = json.Unmarshal([]byte(`{"accessType":"drone"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidAccessInfo)
}

func TestNewAccessDetails_Empty(t *testing.T) {
	details, err := NewAccessDetails("", "", AccessFields{LockboxCode: "9999"})
	require.NoError(t, err)
	assert.Nil(t, details)
}
