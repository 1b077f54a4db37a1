package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCase(status CaseStatus) Case {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return Case{
		ID:          "3f2c8f0e-95aa-4a57-8a6e-0d41c41f2abc",
		Title:       "Checkout broken",
		Description: "customers cannot pay",
		Status:      status,
		Priority:    CasePriorityHigh,
		Version:     1,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCanTransitionTo(t *testing.T) {
	statuses := []CaseStatus{CaseStatusOpen, CaseStatusInProgress, CaseStatusDone, CaseStatusClosed}
	allowed := map[CaseStatus]CaseStatus{
		CaseStatusOpen:       CaseStatusInProgress,
		CaseStatusInProgress: CaseStatusDone,
		CaseStatusDone:       CaseStatusClosed,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from] == to
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionTo_EmptyAndUnknownTarget(t *testing.T) {
	assert.False(t, CaseStatusOpen.CanTransitionTo(""))
	assert.False(t, CaseStatusOpen.CanTransitionTo("ARCHIVED"))
	assert.False(t, CaseStatus("ARCHIVED").CanTransitionTo(CaseStatusOpen))
}

func TestParseCaseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want CaseStatus
		ok   bool
	}{
		{"OPEN", CaseStatusOpen, true},
		{"open", CaseStatusOpen, true},
		{"  in_progress ", CaseStatusInProgress, true},
		{"Done", CaseStatusDone, true},
		{"closed", CaseStatusClosed, true},
		{"", "", false},
		{"   ", "", false},
		{"REOPENED", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCaseStatus(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestParseCasePriority(t *testing.T) {
	got, ok := ParseCasePriority(" critical ")
	require.True(t, ok)
	assert.Equal(t, CasePriorityCritical, got)

	_, ok = ParseCasePriority("urgent")
	assert.False(t, ok)
	_, ok = ParseCasePriority("")
	assert.False(t, ok)
}

func TestChangeStatusTo_NoOpKeepsTimestamps(t *testing.T) {
	c := sampleCase(CaseStatusInProgress)

	got, err := c.ChangeStatusTo(CaseStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestChangeStatusTo_AllowedTransition(t *testing.T) {
	c := sampleCase(CaseStatusOpen)

	got, err := c.ChangeStatusTo(CaseStatusInProgress)
	require.NoError(t, err)

	assert.Equal(t, CaseStatusInProgress, got.Status)
	assert.False(t, got.UpdatedAt.Before(c.UpdatedAt))

	// everything but status and UpdatedAt stays untouched
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, c.Description, got.Description)
	assert.Equal(t, c.Priority, got.Priority)
	assert.Equal(t, c.AssigneeID, got.AssigneeID)
	assert.Equal(t, c.Version, got.Version)
	assert.Equal(t, c.CreatedAt, got.CreatedAt)
}

func TestChangeStatusTo_ReceiverUnchanged(t *testing.T) {
	c := sampleCase(CaseStatusOpen)
	before := c

	_, err := c.ChangeStatusTo(CaseStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, before, c)
}

func TestChangeStatusTo_RejectedTransition(t *testing.T) {
	c := sampleCase(CaseStatusDone)

	_, err := c.ChangeStatusTo(CaseStatusInProgress)
	require.Error(t, err)

	var transitionErr *InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, c.ID, transitionErr.CaseID)
	assert.Equal(t, CaseStatusDone, transitionErr.From)
	assert.Equal(t, CaseStatusInProgress, transitionErr.To)
}

func TestChangeStatusTo_ClosedIsTerminal(t *testing.T) {
	c := sampleCase(CaseStatusClosed)

	for _, target := range []CaseStatus{CaseStatusOpen, CaseStatusInProgress, CaseStatusDone} {
		_, err := c.ChangeStatusTo(target)
		var transitionErr *InvalidTransitionError
		require.True(t, errors.As(err, &transitionErr), "CLOSED -> %s must be rejected", target)
	}
}

func TestChangeStatusTo_EmptyTarget(t *testing.T) {
	c := sampleCase(CaseStatusOpen)

	_, err := c.ChangeStatusTo("")
	assert.ErrorIs(t, err, ErrMissingTargetStatus)
}
