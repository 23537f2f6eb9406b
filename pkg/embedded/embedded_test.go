package embedded

import (
	"bytes"
	"testing"

	"github.com/Conceptual-Machines/melody-api/internal/oracle"
	"github.com/Conceptual-Machines/melody-api/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMappingIsValid(t *testing.T) {
	v, err := vocab.Load(bytes.NewReader(MappingJSON))
	require.NoError(t, err)

	assert.Equal(t, 40, v.Size())
	assert.Equal(t, 0, v.SentinelID())
	assert.True(t, v.Contains(vocab.Hold))
	assert.True(t, v.Contains(vocab.Rest))
	for _, pitch := range []string{"48", "60", "72", "84"} {
		assert.True(t, v.Contains(pitch), pitch)
	}
}

func TestEmbeddedCorpusTrainsMarkov(t *testing.T) {
	v, err := vocab.Load(bytes.NewReader(MappingJSON))
	require.NoError(t, err)

	songs, err := oracle.ParseCorpus(bytes.NewReader(CorpusTxt))
	require.NoError(t, err)
	assert.Len(t, songs, 8)

	_, err = oracle.TrainMarkov(v, songs, 4, 0.01)
	require.NoError(t, err)
}
