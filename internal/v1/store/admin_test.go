package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminMutate_NonAdminNotAuthorized(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "alpha", "pleb", "ip2")

	res := s.AdminMutate("alpha", "pleb", AdminAction{Kind: AdminKick, Target: "admin"})

	assert.Equal(t, AdminStatusNotAuthorized, res.Status)
	assert.True(t, s.IsKnown("admin"))
}

func TestAdminMutate_OutsiderNotAuthorized(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "beta", "other-admin", "ip2")

	// Admin of another room has no authority here.
	res := s.AdminMutate("alpha", "other-admin", AdminAction{Kind: AdminToggleLock})
	assert.Equal(t, AdminStatusNotAuthorized, res.Status)

	// Nor does a connection in no room at all.
	res = s.AdminMutate("alpha", "ghost", AdminAction{Kind: AdminToggleLock})
	assert.Equal(t, AdminStatusNotAuthorized, res.Status)

	// The room itself may not exist.
	res = s.AdminMutate("void", "admin", AdminAction{Kind: AdminToggleLock})
	assert.Equal(t, AdminStatusNotAuthorized, res.Status)
}

func TestAdminMutate_TargetMissing(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminKick, Target: "ghost"})

	assert.Equal(t, AdminStatusTargetMissing, res.Status)
}

func TestAdminMutate_ToggleLockFlips(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminToggleLock})
	require.Equal(t, AdminStatusOK, res.Status)
	assert.True(t, res.Locked)

	res = s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminToggleLock})
	require.Equal(t, AdminStatusOK, res.Status)
	assert.False(t, res.Locked)

	// Unlocked again: newcomers may join.
	outcome := join(s, "alpha", "late", "ip2")
	assert.Equal(t, JoinStatusJoined, outcome.Status)
}

func TestAdminMutate_LockDoesNotEvictMembers(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "alpha", "member", "ip2")

	s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminToggleLock})

	assert.True(t, s.IsKnown("member"))
	_, ok := s.SetMediaState("member", false, false)
	assert.True(t, ok)
}

func TestAdminMutate_KickLeavesRecordToTransport(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "alpha", "victim", "ip2")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminKick, Target: "victim"})
	require.Equal(t, AdminStatusOK, res.Status)

	// Removal happens through the disconnect path, not here.
	assert.True(t, s.IsKnown("victim"))
	s.Leave("victim")
	assert.False(t, s.IsKnown("victim"))

	// Kicked but not banned: the identity may rejoin immediately.
	outcome := join(s, "alpha", "victim-2", "ip2")
	assert.Equal(t, JoinStatusJoined, outcome.Status)
}

func TestAdminMutate_BanKeysOnIdentity(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "alpha", "victim", "shared-ip")
	join(s, "alpha", "sibling", "shared-ip")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminBan, Target: "victim", Duration: time.Hour})
	require.Equal(t, AdminStatusOK, res.Status)
	assert.Equal(t, time.Hour, res.Duration)

	s.Leave("victim")
	s.Leave("sibling")

	// Both connections shared the identity, so both are locked out.
	outcome := join(s, "alpha", "victim-2", "shared-ip")
	assert.Equal(t, JoinStatusBanned, outcome.Status)
	outcome = join(s, "alpha", "sibling-2", "shared-ip")
	assert.Equal(t, JoinStatusBanned, outcome.Status)
}

func TestAdminMutate_MuteThenUnmute(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")
	join(s, "alpha", "loud", "ip2")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminMute, Target: "loud", Duration: 5 * time.Minute})
	require.Equal(t, AdminStatusOK, res.Status)

	m, _ := s.MemberInfo("alpha", "loud")
	assert.False(t, m.AudioEnabled)

	res = s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminUnmute, Target: "loud"})
	require.Equal(t, AdminStatusOK, res.Status)

	// Identity mute record is gone: a rejoin carries no residual mute.
	s.Leave("loud")
	outcome := join(s, "alpha", "loud-2", "ip2")
	require.Equal(t, JoinStatusJoined, outcome.Status)
	assert.Zero(t, outcome.MuteRemaining)
}

func TestAdminMutate_AdminCanTargetSelf(t *testing.T) {
	s, _ := newTestStore()
	join(s, "alpha", "admin", "ip1")

	res := s.AdminMutate("alpha", "admin", AdminAction{Kind: AdminMute, Target: "admin", Duration: time.Minute})

	require.Equal(t, AdminStatusOK, res.Status)
	m, _ := s.MemberInfo("alpha", "admin")
	assert.False(t, m.AudioEnabled)
}
