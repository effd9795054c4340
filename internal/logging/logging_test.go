package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zap.InfoLevel) })

	require.NoError(t, SetLevel("debug"))
	assert.True(t, Logger.Desugar().Core().Enabled(zap.DebugLevel))

	require.NoError(t, SetLevel("error"))
	assert.False(t, Logger.Desugar().Core().Enabled(zap.WarnLevel))

	require.NoError(t, SetLevel(""), "empty level keeps the current one")
	assert.Error(t, SetLevel("loud"))
}
