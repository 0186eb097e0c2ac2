package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_KeepsMostRecent(t *testing.T) {
	t.Parallel()

	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Notify(LevelInfo, fmt.Sprintf("n%d", i))
	}

	recent := r.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "n2", recent[0].Message)
	assert.Equal(t, "n4", recent[2].Message)
}

func TestRing_RecentIsACopy(t *testing.T) {
	t.Parallel()

	r := NewRing(0)
	r.Notify(LevelError, "failed: timeout")

	recent := r.Recent()
	recent[0].Message = "changed"
	assert.Equal(t, "failed: timeout", r.Recent()[0].Message)
	assert.Equal(t, LevelError, r.Recent()[0].Level)
}
