package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/growhub/growhub/cmd/growhub/testing"
)

func TestVersionCommand(t *testing.T) {
	t.Run("prints version information", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "version")

		require.NoError(t, err)
		assert.Contains(t, output, "growhub v")
		assert.Contains(t, output, "Build Date")
		assert.Contains(t, output, "Git Commit")
	})

	t.Run("JSON output format", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "version", "--json")

		require.NoError(t, err)
		assert.Contains(t, output, "\"version\"")
		assert.Contains(t, output, "{")
	})

	t.Run("does not accept arguments", func(t *testing.T) {
		rootCmd := NewRootCmd()
		_, err := clitest.ExecuteCommand(rootCmd, "version", "extra")

		assert.Error(t, err)
	})
}
