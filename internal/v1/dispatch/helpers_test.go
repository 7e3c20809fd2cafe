package dispatch

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/types"
)

func TestBanMessage(t *testing.T) {
	assert.Equal(t, "You are banned from this room. Try again in 90s.", banMessage(90*time.Second))
	// Sub-second remainders never read as "0s".
	assert.Equal(t, "You are banned from this room. Try again in 1s.", banMessage(200*time.Millisecond))
}

func TestModerationDuration(t *testing.T) {
	assert.Equal(t, defaultModerationDuration, moderationDuration(0))
	assert.Equal(t, defaultModerationDuration, moderationDuration(-3))
	assert.Equal(t, 150*time.Second, moderationDuration(2.5))
	assert.Equal(t, 10*time.Minute, moderationDuration(10))
}

func TestParseAdminAction(t *testing.T) {
	action, ok := parseAdminAction(types.AdminCommandBan, "c9", time.Hour)
	require.True(t, ok)
	assert.Equal(t, store.AdminBan, action.Kind)
	assert.Equal(t, types.ConnectionIDType("c9"), action.Target)
	assert.Equal(t, time.Hour, action.Duration)

	action, ok = parseAdminAction(types.AdminCommandToggleLock, "ignored", 0)
	require.True(t, ok)
	assert.Equal(t, store.AdminToggleLock, action.Kind)

	_, ok = parseAdminAction("vaporize", "c9", 0)
	assert.False(t, ok)
}

func TestTruncateChat(t *testing.T) {
	assert.Equal(t, "short", truncateChat("short"))

	exact := make([]rune, types.MaxChatMessageLen)
	for i := range exact {
		exact[i] = 'a'
	}
	assert.Equal(t, string(exact), truncateChat(string(exact)))
	assert.Len(t, []rune(truncateChat(string(exact)+"overflow")), types.MaxChatMessageLen)
}

func BenchmarkBroadcastChat(b *testing.B) {
	f := newFixture()
	for i := 0; i < 20; i++ {
		id := types.ConnectionIDType(fmt.Sprintf("c%d", i))
		f.d.Connect(id, types.IdentityType(fmt.Sprintf("ip%d", i)))
		f.d.HandleEvent(id, types.Event{
			Name: types.EventJoinRoom,
			Data: []byte(fmt.Sprintf(`{"room":"bench","name":"user%d"}`, i)),
		})
	}
	event := types.Event{Name: types.EventChatMessage, Data: []byte(`{"text":"benchmark message"}`)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.d.HandleEvent("c0", event)
		f.sender.clear()
	}
}
