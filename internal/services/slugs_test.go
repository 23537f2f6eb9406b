package services

import (
	"context"
	"os"
	"testing"

	"github.com/Conceptual-Machines/melody-api/internal/database"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugCodecRoundTrip(t *testing.T) {
	codec := NewSlugCodec("melody")

	for _, id := range []uint{1, 2, 99, 123456} {
		slug, err := codec.Encode(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(slug), slugMinLength)

		decoded, err := codec.Decode(slug)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestSlugCodecDependsOnSalt(t *testing.T) {
	a, err := NewSlugCodec("one").Encode(5)
	require.NoError(t, err)
	b, err := NewSlugCodec("two").Encode(5)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = NewSlugCodec("two").Decode(a)
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestSlugCodecRejectsGarbage(t *testing.T) {
	_, err := NewSlugCodec("melody").Decode("!!!")
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -3)
	assert.Equal(t, maxCompositionPageSize, limit)
	assert.Equal(t, 0, offset)

	limit, offset = clampPage(10, 20)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}

func TestCompositionServiceWithDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store := NewCompositionService(db, NewSlugCodec("test"))
	ctx := context.Background()

	c := &models.Composition{Seed: "60 _", Melody: "60 _ 62", Steps: 10, Window: 64, Temperature: 1, StepDuration: 0.25}
	require.NoError(t, store.Create(ctx, c))
	require.NotEmpty(t, c.Slug)
	t.Cleanup(func() { db.Unscoped().Delete(&models.Composition{}, c.ID) })

	got, err := store.GetBySlug(ctx, c.Slug)
	require.NoError(t, err)
	assert.Equal(t, "60 _ 62", got.Melody)

	_, err = store.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrCompositionNotFound)

	list, total, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)
}
