package playbook_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/playbook"
)

func TestParse_CountsNumberedStrategies(t *testing.T) {
	text := `POLYMARKET PLAYBOOK

1. Nothing Ever Happens
Bet against dramatic change.

2) News Scalping
React to breaking headlines.
   - 3 sub-points that are not headings
## 3: Fed Signal Trading
`
	pb, err := playbook.Parse(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, 3, pb.Strategies)
	assert.True(t, strings.HasPrefix(pb.Text, "POLYMARKET PLAYBOOK"))
	assert.True(t, pb.ValidCitation(3))
	assert.False(t, pb.ValidCitation(4))
}

func TestParse_GapStopsCount(t *testing.T) {
	pb, err := playbook.Parse(strings.NewReader("1. a\n2. b\n4. d\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, pb.Strategies)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	pb, err := playbook.Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Empty(t, pb.Text)
	assert.Equal(t, 0, pb.Strategies)
}

func TestLoad_ShippedKnowledgeBase(t *testing.T) {
	pb, err := playbook.Load(filepath.Join("..", "..", "..", "config", "kb.txt"))
	require.NoError(t, err)
	assert.Equal(t, 14, pb.Strategies)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.txt")
	require.NoError(t, os.WriteFile(path, []byte("1. Only one\n"), 0o644))
	pb, err := playbook.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, pb.Strategies)
}
