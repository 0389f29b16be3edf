package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"reconcile"},
		{"user", "add"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, reconcileCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, migrateDownCmd.Flags().Lookup("steps"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestUserAdd_RequiresArgs(t *testing.T) {
	rootCmd.SetArgs([]string{"user", "add", "--password", "x"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	prev := configPath
	configPath = "does-not-exist.yaml"
	t.Cleanup(func() { configPath = prev })

	_, err := loadConfig()
	assert.Error(t, err)
}
