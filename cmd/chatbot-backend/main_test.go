package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

func TestIngestScope(t *testing.T) {
	dir := t.TempDir()
	private := filepath.Join(dir, "private_salaries.pdf")
	public := filepath.Join(dir, "handbook.txt")
	require.NoError(t, os.WriteFile(private, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(public, []byte("x"), 0o600))

	tests := []struct {
		name   string
		source string
		flag   string
		want   domain.AccessScope
	}{
		{"private prefix", private, "", domain.ScopePrivate},
		{"plain file", public, "", domain.ScopePublic},
		{"flag wins over name", private, "public", domain.ScopePublic},
		{"url defaults public", "https://example.com/about", "", domain.ScopePublic},
		{"url with flag", "https://example.com/hr", "PRIVATE", domain.ScopePrivate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ingestScope(tt.source, tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ingestScope(public, "secret")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = ingestScope(filepath.Join(dir, "missing.txt"), "")
	assert.True(t, errors.Is(err, domain.ErrSourceUnreadable))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"api", "worker", "all", "migrate", "scan", "ingest"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	migrate, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	steps := migrate.Flags().Lookup("steps")
	require.NotNil(t, steps)
	assert.Equal(t, "1", steps.DefValue)
}

func TestIngestCommand_RequiresOneSource(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"ingest"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
