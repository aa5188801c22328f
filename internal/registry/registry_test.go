package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/model"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
)

func entry(id string) *model.EducationalContent {
	levels := make(map[int]model.ContentLevel, model.MaxLevel)
	for n := model.MinLevel; n <= model.MaxLevel; n++ {
		levels[n] = model.ContentLevel{Level: n, Summary: "s", Explanation: "e"}
	}
	return &model.EducationalContent{ID: id, Name: id, Levels: levels}
}

func TestRegister_DuplicateID(t *testing.T) {
	r := New()
	first := entry("x")
	require.NoError(t, r.Register(first))

	err := r.Register(entry("x"))
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateID(err))
	assert.Contains(t, err.Error(), `"x"`)

	got, err := r.GetByID("x")
	require.NoError(t, err)
	assert.Same(t, first, got, "the original entry must survive a rejected duplicate")
	assert.Equal(t, 1, r.Len())
}

func TestRegister_Nil(t *testing.T) {
	err := New().Register(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestGetByID_NotFound(t *testing.T) {
	r := New()
	_, err := r.GetByID("nonexistent-id")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, r.Has("nonexistent-id"))
}

func TestGetAll_RegistrationOrderAndRoundTrip(t *testing.T) {
	r := New()
	ids := []string{"physical-exam-skin", "dermatology-acne", "dermatology-psoriasis"}
	for _, id := range ids {
		require.NoError(t, r.Register(entry(id)))
	}

	all := r.GetAll()
	require.Len(t, all, len(ids))
	assert.Equal(t, ids, r.IDs())
	for i := range all {
		got, err := r.GetByID(all[i].ID)
		require.NoError(t, err)
		assert.Same(t, all[i], got)
	}
}

func TestGetAll_ReturnsCopy(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entry("a")))

	all := r.GetAll()
	all[0] = entry("b")

	assert.Equal(t, "a", r.GetAll()[0].ID)
}

func TestConcurrentReads(t *testing.T) {
	r := New()
	for i := 0; i < 20; i++ {
		require.NoError(t, r.Register(entry(fmt.Sprintf("entry-%d", i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, c := range r.GetAll() {
				_, err := r.GetByID(c.ID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
