package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeParticipants(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeParticipants([]string{"b", "a"}))
	assert.Equal(t, []string{"a", "b"}, NormalizeParticipants([]string{"a", "b", "a"}))
	assert.Equal(t, []string{"a"}, NormalizeParticipants([]string{"a", "", "a"}))
	assert.Empty(t, NormalizeParticipants(nil))
}

// the key must be identical whatever order the callers pass the ids in
func TestBuildParticipantKey(t *testing.T) {
	assert.Equal(t, BuildParticipantKey([]string{"a", "b"}), BuildParticipantKey([]string{"b", "a"}))
	assert.Equal(t, "a:b:c", BuildParticipantKey([]string{"c", "a", "b"}))
}

func TestHasParticipant(t *testing.T) {
	conv := Conversation{Participants: []string{"user-1", "user-2"}}
	assert.True(t, conv.HasParticipant("user-1"))
	assert.False(t, conv.HasParticipant("user-3"))
}

func TestRecipients(t *testing.T) {
	conv := Conversation{Participants: []string{"user-1", "user-2", "user-3"}}
	assert.Equal(t, []string{"user-2", "user-3"}, conv.Recipients("user-1"))
	assert.Equal(t, []string{"user-1", "user-2", "user-3"}, conv.Recipients("stranger"))
}
