package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		status Status
		action Action
		next   Status
		ok     bool
	}{
		{StatusActive, ActionUpdate, StatusActive, true},
		{StatusActive, ActionCancel, StatusCancelled, true},
		{StatusActive, ActionComplete, StatusCompleted, true},
		{StatusActive, ActionDelete, StatusDeleted, true},
		{StatusCancelled, ActionDelete, StatusDeleted, true},
		{StatusCompleted, ActionDelete, StatusDeleted, true},
		{StatusCancelled, ActionUpdate, "", false},
		{StatusCancelled, ActionCancel, "", false},
		{StatusCancelled, ActionComplete, "", false},
		{StatusCompleted, ActionUpdate, "", false},
		{StatusCompleted, ActionCancel, "", false},
		{StatusDeleted, ActionUpdate, "", false},
		{StatusDeleted, ActionCancel, "", false},
		{StatusDeleted, ActionDelete, "", false},
	}

	for _, tc := range cases {
		next, ok := tc.status.Apply(tc.action)
		require.Equal(t, tc.ok, ok, "%s + %s", tc.status, tc.action)
		if tc.ok {
			require.Equal(t, tc.next, next, "%s + %s", tc.status, tc.action)
		}
		require.Equal(t, tc.ok, tc.status.CanApply(tc.action))
	}
}

func TestIsOwnerCaseInsensitive(t *testing.T) {
	event := &Event{CoordinatorEmail: "maria@example.org"}

	require.True(t, event.IsOwner("maria@example.org"))
	require.True(t, event.IsOwner("MARIA@Example.ORG"))
	require.True(t, event.IsOwner("  maria@example.org  "))
	require.False(t, event.IsOwner("someone@example.org"))
	require.False(t, event.IsOwner(""))
}

func TestStartsWithin(t *testing.T) {
	now := time.Now().UTC()

	near := &Event{DateTime: now.Add(23 * time.Hour)}
	require.True(t, near.StartsWithin(now, EditLockWindow))

	far := &Event{DateTime: now.Add(25 * time.Hour)}
	require.False(t, far.StartsWithin(now, EditLockWindow))

	started := &Event{DateTime: now.Add(-time.Hour)}
	require.True(t, started.StartsWithin(now, EditLockWindow))
}

func TestOwnerCancelWindow(t *testing.T) {
	now := time.Now().UTC()
	owner := Owner{Email: "maria@example.org"}

	outside := &Event{DateTime: now.Add(7 * time.Hour)}
	require.True(t, owner.CanCancel(outside, now))

	inside := &Event{DateTime: now.Add(5 * time.Hour)}
	require.False(t, owner.CanCancel(inside, now))

	boundary := &Event{DateTime: now.Add(OwnerCancelWindow)}
	require.True(t, owner.CanCancel(boundary, now))
}

func TestAdministratorCancelWindow(t *testing.T) {
	now := time.Now().UTC()
	admin := Administrator{}

	soon := &Event{DateTime: now.Add(5 * time.Hour)}
	require.True(t, admin.CanCancel(soon, now))

	imminent := &Event{DateTime: now.Add(time.Minute)}
	require.True(t, admin.CanCancel(imminent, now))

	started := &Event{DateTime: now.Add(-time.Hour)}
	require.False(t, admin.CanCancel(started, now))
}

func TestNewShortID(t *testing.T) {
	// A random byte must map onto the alphabet evenly, or ids skew toward
	// the low characters.
	require.Len(t, idAlphabet, 64)
	require.Zero(t, 256%len(idAlphabet))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewShortID()
		require.Len(t, id, 11)
		for _, r := range id {
			require.True(t, strings.ContainsRune(idAlphabet, r), "id %s contains %q", id, r)
		}
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
