package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOf(t *testing.T) {
	assert.Equal(t, 0, RankOf(StatusSent))
	assert.Equal(t, 1, RankOf(StatusDelivered))
	assert.Equal(t, 2, RankOf(StatusRead))
	assert.Equal(t, 3, RankOf(StatusFailed))
	assert.Equal(t, -1, RankOf(DeliveryState("BOGUS")))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusSent, StatusDelivered))
	assert.True(t, CanTransition(StatusSent, StatusRead))
	assert.True(t, CanTransition(StatusDelivered, StatusRead))

	// repeated or backwards transitions are no-ops
	assert.False(t, CanTransition(StatusDelivered, StatusDelivered))
	assert.False(t, CanTransition(StatusDelivered, StatusSent))
	assert.False(t, CanTransition(StatusRead, StatusDelivered))

	// terminal states never move
	assert.False(t, CanTransition(StatusRead, StatusFailed))
	assert.False(t, CanTransition(StatusFailed, StatusRead))
}

// racing transitions must settle on the highest status regardless of order
func TestTransitionOrderIndependent(t *testing.T) {
	apply := func(current DeliveryState, incoming ...DeliveryState) DeliveryState {
		for _, s := range incoming {
			if CanTransition(current, s) {
				current = s
			}
		}
		return current
	}

	assert.Equal(t, StatusRead, apply(StatusSent, StatusDelivered, StatusRead))
	assert.Equal(t, StatusRead, apply(StatusSent, StatusRead, StatusDelivered))
	assert.Equal(t, StatusRead, apply(StatusSent, StatusRead, StatusRead))
	assert.Equal(t, StatusDelivered, apply(StatusSent, StatusDelivered, StatusDelivered))
}

func TestLowerStates(t *testing.T) {
	assert.Equal(t, []DeliveryState{StatusSent}, LowerStates(StatusDelivered))
	assert.Equal(t, []DeliveryState{StatusSent, StatusDelivered}, LowerStates(StatusRead))
	assert.Empty(t, LowerStates(StatusSent))
}

func TestNewDeliveryStatus(t *testing.T) {
	participants := []string{"user-1", "user-2", "user-3"}
	m := NewDeliveryStatus(participants, "user-1", 1000)

	assert.Len(t, m, 2)
	assert.NotContains(t, m, "user-1")
	assert.Equal(t, DeliveryEntry{Status: StatusSent, UpdatedAt: 1000}, m["user-2"])
	assert.Equal(t, DeliveryEntry{Status: StatusSent, UpdatedAt: 1000}, m["user-3"])
}

func TestValidMessageType(t *testing.T) {
	assert.True(t, ValidMessageType(MessageTypeText))
	assert.True(t, ValidMessageType(MessageTypeImage))
	assert.True(t, ValidMessageType(MessageTypeSystem))
	assert.True(t, ValidMessageType(MessageTypeLocation))
	assert.False(t, ValidMessageType(MessageType("VIDEO")))
}

func TestRedact(t *testing.T) {
	msg := Message{
		Content:  "secret",
		Metadata: map[string]interface{}{"k": "v"},
	}

	msg.Redact()
	assert.Equal(t, "secret", msg.Content)

	msg.Deleted = true
	msg.Redact()
	assert.Equal(t, DeletedPlaceholder, msg.Content)
	assert.Nil(t, msg.Metadata)
}

func TestRecipientStatus(t *testing.T) {
	msg := Message{
		SenderID: "user-1",
		DeliveryStatus: map[string]DeliveryEntry{
			"user-2": {Status: StatusSent, UpdatedAt: 1000},
		},
	}

	entry, ok := msg.RecipientStatus("user-2")
	assert.True(t, ok)
	assert.Equal(t, StatusSent, entry.Status)

	_, ok = msg.RecipientStatus("user-1")
	assert.False(t, ok)
}
