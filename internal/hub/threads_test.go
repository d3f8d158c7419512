package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadRegistryJoinLeave(t *testing.T) {
	reg := NewThreadRegistry()

	reg.Join("t1", "c1")
	reg.Join("t1", "c2")
	reg.Join("t2", "c1")

	assert.ElementsMatch(t, []string{"c1", "c2"}, asStrings(reg.Members("t1")))
	assert.True(t, reg.Contains("t2", "c1"))

	reg.Leave("t1", "c1")
	assert.False(t, reg.Contains("t1", "c1"))
	assert.True(t, reg.Contains("t2", "c1"))
}

func TestThreadRegistryLeaveAll(t *testing.T) {
	reg := NewThreadRegistry()
	reg.Join("t1", "c1")
	reg.Join("t2", "c1")
	reg.Join("t2", "c2")

	left := reg.LeaveAll("c1")
	assert.ElementsMatch(t, []string{"t1", "t2"}, asStrings(left))
	assert.Empty(t, reg.Members("t1"))
	assert.ElementsMatch(t, []string{"c2"}, asStrings(reg.Members("t2")))

	// Second drain finds nothing.
	assert.Empty(t, reg.LeaveAll("c1"))
}
