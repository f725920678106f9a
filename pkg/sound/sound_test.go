package sound

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := NewBell(&buf)

	require.NoError(t, b.Play(Start))
	assert.Equal(t, "\a", buf.String())

	buf.Reset()
	require.NoError(t, b.Play(Complete))
	assert.Equal(t, "\a\a", buf.String())
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	n, err := New("off", "", &buf)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Play(Complete))

	n, err = New("", "", &buf)
	require.NoError(t, err)
	assert.IsType(t, &Bell{}, n)

	n, err = New("command", "paplay /tmp/{kind}.oga", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"paplay", "/tmp/{kind}.oga"}, n.(*Command).Argv)

	_, err = New("command", "  ", &buf)
	assert.Error(t, err)

	_, err = New("trumpet", "", &buf)
	assert.Error(t, err)
}

func TestCommandMissingBinary(t *testing.T) {
	c, err := NewCommand("pomo-definitely-not-a-player {kind}")
	require.NoError(t, err)

	err = c.Play(Break)
	assert.ErrorContains(t, err, "playing break cue")
}
