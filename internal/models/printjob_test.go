package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to PrintJobStatus
		allowed  bool
	}{
		{StatusCreated, StatusScanReceived, true},
		{StatusCreated, StatusApproved, false},
		{StatusCreated, StatusRecognizedAutoOK, false},
		{StatusScanReceived, StatusRecognizedAutoOK, true},
		{StatusScanReceived, StatusRecognizedNeedsWork, true},
		{StatusScanReceived, StatusRecognizedError, true},
		{StatusScanReceived, StatusApproved, false},
		{StatusRecognizedAutoOK, StatusApproved, true},
		{StatusRecognizedAutoOK, StatusRejected, true},
		{StatusRecognizedAutoOK, StatusScanReceived, false},
		{StatusRecognizedNeedsWork, StatusApproved, true},
		{StatusRecognizedNeedsWork, StatusRejected, true},
		{StatusRecognizedError, StatusScanReceived, true},
		{StatusRecognizedError, StatusApproved, false},
		{StatusRecognizedError, StatusRejected, false},
		{StatusApproved, StatusScanReceived, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusScanReceived, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusCreated.IsTerminal())
	assert.False(t, StatusScanReceived.IsTerminal())
	assert.False(t, StatusRecognizedError.IsTerminal())
}

func TestStatusForVerdict(t *testing.T) {
	assert.Equal(t, StatusRecognizedAutoOK, StatusForVerdict(VerdictAutoOK))
	assert.Equal(t, StatusRecognizedNeedsWork, StatusForVerdict(VerdictNeedReview))
	assert.Equal(t, StatusRecognizedError, StatusForVerdict(VerdictError))
}
