package scheduler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBlockRenderLoopSuspendsUntilResume(t *testing.T) {
	s := New()
	require.False(t, s.Blocked())

	s.BlockRenderLoop()
	require.True(t, s.Blocked())

	s.Resume()
	require.False(t, s.Blocked())
}

func TestResumeNotifiesListenersWithFreshEpoch(t *testing.T) {
	s := New()

	var seen []uuid.UUID
	s.AddListener(func(epoch uuid.UUID) { seen = append(seen, epoch) })
	s.AddListener(func(epoch uuid.UUID) { seen = append(seen, epoch) })

	s.BlockRenderLoop()
	s.Resume()
	require.Len(t, seen, 2)
	require.Equal(t, seen[0], seen[1])

	s.BlockRenderLoop()
	s.Resume()
	require.Len(t, seen, 4)
	require.NotEqual(t, seen[0], seen[2], "each resume gets a distinct epoch")
}
