package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		short, full string
		want        bool
	}{
		{"app", "apple", true},
		{"apple", "apple", true},
		{"APPLE", "apple", true},
		{"apples", "apple", false},
		{"gold", "shiny golden key", true},
		{"key", "shiny golden key", true},
		{"shiny gold", "shiny golden key", true},
		{"den", "shiny golden key", false},
		{"", "anything", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.short, tt.full), "Name(%q, %q)", tt.short, tt.full)
	}
}

func TestNameIdentity(t *testing.T) {
	for _, s := range []string{"a", "apple", "Shiny Key"} {
		assert.True(t, Name(s, s))
	}
}

func TestListPrefix(t *testing.T) {
	names := []string{"apple", "apricot", "banana"}
	got := List("ap", names)
	require.Equal(t, []int{0, 1}, got)
}

func TestListExactWins(t *testing.T) {
	names := []string{"apple pie", "apple"}
	got := List("apple", names)
	require.Equal(t, []int{1}, got, "exact equality should shadow prefix matches")
}

func TestListCaseInsensitiveExact(t *testing.T) {
	names := []string{"Alice", "alicia"}
	require.Equal(t, []int{0}, List("alice", names))
}

func TestListNoMatch(t *testing.T) {
	require.Empty(t, List("zebra", []string{"apple", "banana"}))
}

func TestMultipleChoice(t *testing.T) {
	got := MultipleChoice([]string{"apple", "apricot"})
	require.Equal(t, "Which one?\nChoices are: apple, apricot", got)
}
