package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_MatchesFullPathAndSegment(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add("*.bak"))

	assert.True(t, s.Matches("notes.bak"))
	assert.True(t, s.Matches("dir/notes.bak"))
	assert.False(t, s.Matches("notes.txt"))
}

func TestSet_NegationUnmatches(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add("*.bak"))
	require.NoError(t, s.Add("!keep.bak"))

	assert.False(t, s.Matches("keep.bak"))
	assert.True(t, s.Matches("other.bak"))
}

func TestSet_EmptySetNeverMatches(t *testing.T) {
	s := NewSet()
	assert.False(t, s.Matches("anything"))
	assert.Equal(t, 0, s.Len())
}

func TestSet_InsertionOrderControlsLaterNegation(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add("!keep.bak"))
	require.NoError(t, s.Add("*.bak"))

	// The negation appears before the pattern it would otherwise cancel, so
	// it has no effect: the later *.bak still matches.
	assert.True(t, s.Matches("keep.bak"))
}

func TestPattern_GlobToRegexIsCaseInsensitiveAndAnchored(t *testing.T) {
	p, err := NewPattern("*.BAK")
	require.NoError(t, err)

	assert.True(t, p.Match("notes.bak"))
	assert.False(t, p.Match("notes.bak.txt"))
}

func TestPattern_QuestionMarkMatchesSingleChar(t *testing.T) {
	p, err := NewPattern("file?.txt")
	require.NoError(t, err)

	assert.True(t, p.Match("file1.txt"))
	assert.False(t, p.Match("file12.txt"))
}

func TestPattern_BracketClassTreatedLiterally(t *testing.T) {
	p, err := NewPattern("file[1].txt")
	require.NoError(t, err)

	assert.True(t, p.Match("file[1].txt"))
	assert.False(t, p.Match("file1.txt"))
}

func TestPattern_IsNegation(t *testing.T) {
	p, err := NewPattern("!*.bak")
	require.NoError(t, err)
	assert.True(t, p.IsNegation())
	assert.Equal(t, "!*.bak", p.String())
}
