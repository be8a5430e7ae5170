package featureflags

import (
	"strings"
	"testing"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")
	viewer := models.NewID()

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, viewer), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, viewer), name)
	}
	assert.True(t, m.Enabled("A", ""))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")
	viewer := models.NewID()

	assert.True(t, m.Enabled("always", ""))
	assert.False(t, m.Enabled("never", viewer))
	assert.False(t, m.Enabled("junk", viewer))
	assert.False(t, m.Enabled("canary", ""))

	first := m.Enabled("canary", viewer)
	upper := models.ID(strings.ToUpper(viewer.String()))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", viewer))
		assert.Equal(t, first, m.Enabled("canary", upper))
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())

	snap := m.Snapshot(models.NewID())
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(RealtimeFeed, models.NewID()))
}

func TestReachable(t *testing.T) {
	m := NewManager("full=on,part=10%,dark=off,zero=0%,junk=abc%")

	assert.True(t, m.Reachable("full"))
	assert.True(t, m.Reachable("PART"))
	assert.False(t, m.Reachable("dark"))
	assert.False(t, m.Reachable("zero"))
	assert.False(t, m.Reachable("junk"))
	assert.False(t, m.Reachable("missing"))

	var unset *Manager
	assert.False(t, unset.Reachable(RealtimeFeed))
}
