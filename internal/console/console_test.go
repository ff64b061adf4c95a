package console

import (
	"bytes"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	color.Disable()
	t.Cleanup(func() { color.Enable = true })

	var out, errBuf bytes.Buffer
	c := New(&out, &errBuf, false)

	c.Step("Configuring %s", "opencv")
	c.Info("log: %s", "/tmp/cmake.log")
	c.Warn("execstack not found")
	c.Verbosef("hidden %d", 1)

	assert.Equal(t, "-> Configuring opencv\n   log: /tmp/cmake.log\n", out.String())
	assert.Equal(t, "Warning: execstack not found\n", errBuf.String())
}

func TestConsole_Verbose(t *testing.T) {
	var out, errBuf bytes.Buffer
	c := New(&out, &errBuf, true)

	c.Verbosef("running %s", "git --version")
	assert.True(t, c.IsVerbose())
	assert.Equal(t, "[verbose] running git --version\n", errBuf.String())
	assert.Empty(t, out.String())
}
