package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Panchalparth471/app-backend/internal/models"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)

	keys := r.Keys()
	require.Len(t, keys, 5)
	assert.Equal(t, "mom-stories", keys[0])

	d, ok := r.Describe("learn-stories")
	require.True(t, ok)
	assert.Equal(t, "educational", d.Category)
	assert.Equal(t, 1, d.TargetCount)
	assert.NotEmpty(t, d.PromptTemplate)

	_, ok = r.Describe("nope")
	assert.False(t, ok)
}

func TestRegistry_WithTargetCount(t *testing.T) {
	descs := []models.CollectionDescriptor{
		{Key: "a"},
		{Key: "b", TargetCount: 4},
	}
	r, err := NewRegistry(descs, WithTargetCount(3))
	require.NoError(t, err)

	a, _ := r.Describe("a")
	b, _ := r.Describe("b")
	assert.Equal(t, 3, a.TargetCount)
	assert.Equal(t, 4, b.TargetCount)
	assert.Len(t, r.All(), 2)
}

func TestRegistry_RejectsBadDescriptors(t *testing.T) {
	_, err := NewRegistry([]models.CollectionDescriptor{{Key: ""}})
	assert.Error(t, err)

	_, err = NewRegistry([]models.CollectionDescriptor{{Key: "x"}, {Key: "x"}})
	assert.Error(t, err)
}

func TestRegistry_KeysIsACopy(t *testing.T) {
	r, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)
	keys := r.Keys()
	keys[0] = "mutated"
	assert.Equal(t, "mom-stories", r.Keys()[0])
}
