package configurator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotices_AutoDismiss(t *testing.T) {
	n := NewNotices(30 * time.Millisecond)
	defer n.Close()

	nt := n.Push(NoticeSuccess, "Configuration saved")
	require.Len(t, n.List(), 1)
	assert.Equal(t, nt.ID, n.List()[0].ID)

	assert.Eventually(t, func() bool { return len(n.List()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestNotices_DismissEarly(t *testing.T) {
	n := NewNotices(time.Hour)
	defer n.Close()

	a := n.Push(NoticeInfo, "first")
	b := n.Push(NoticeWarning, "second")

	assert.True(t, n.Dismiss(a.ID))
	assert.False(t, n.Dismiss(a.ID))
	assert.False(t, n.Dismiss("missing"))

	list := n.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, NoticeWarning, list[0].Level)
}

func TestNotices_DefaultTTL(t *testing.T) {
	n := NewNotices(0)
	defer n.Close()
	assert.Equal(t, DefaultNoticeTTL, n.ttl)
}

func TestNotices_CloseStopsTimers(t *testing.T) {
	n := NewNotices(time.Hour)
	n.Push(NoticeDanger, "boom")
	n.Close()

	assert.Empty(t, n.List())
	n.Push(NoticeInfo, "after close")
	assert.Empty(t, n.List())
}
