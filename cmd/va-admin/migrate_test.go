package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements_CommentsDoNotSwallowStatements(t *testing.T) {
	input := `-- leading comment
CREATE TABLE a (id INT);

-- a comment above the statement
CREATE INDEX idx_a ON a (id);

CREATE TABLE b (
    id INT  -- trailing column comment stays, it has no leading --
);
`
	got := splitStatements(input)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "CREATE TABLE a")
	assert.Contains(t, got[1], "CREATE INDEX idx_a")
	assert.Contains(t, got[2], "CREATE TABLE b")
}

func TestSplitStatements_SemicolonInCommentDoesNotSplit(t *testing.T) {
	input := `-- note: a; b; c
CREATE TABLE a (id INT);
`
	got := splitStatements(input)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "CREATE TABLE a"))
}

func TestSplitStatements_AppliesOwnSchema(t *testing.T) {
	raw, err := os.ReadFile("../../migrations/0001_core.sql")
	require.NoError(t, err)

	got := splitStatements(string(raw))
	require.NotEmpty(t, got)

	joined := strings.Join(got, "\n")
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS locations",
		"idx_locations_path_prefix",
		"CREATE TABLE IF NOT EXISTS verbal_autopsies",
		"idx_vas_identifier",
		"idx_vas_death_date",
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS user_locations",
	} {
		assert.Contains(t, joined, want)
	}
	for _, stmt := range got {
		assert.True(t, strings.HasPrefix(stmt, "CREATE"), "unexpected fragment: %q", stmt)
	}
}
