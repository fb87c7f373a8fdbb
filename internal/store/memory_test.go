package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_NewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Record(ctx, Entry{FileName: fmt.Sprintf("f%d.json", i)}))
	}

	list, err := m.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "f2.json", list[0].FileName)
	assert.Equal(t, "f0.json", list[2].FileName)

	list, err = m.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemory_RingOverwritesOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Record(ctx, Entry{FileName: fmt.Sprintf("f%d.json", i)}))
	}

	list, err := m.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"f4.json", "f3.json", "f2.json"},
		[]string{list[0].FileName, list[1].FileName, list[2].FileName})
}

func TestMemory_Get(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	id := uuid.New()
	require.NoError(t, m.Record(ctx, Entry{ID: id, FileName: "a.json", Errors: []string{"x"}}))

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.json", got.FileName)
	assert.False(t, got.FinishedAt.IsZero())

	_, err = m.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_EmptyList(t *testing.T) {
	list, err := NewMemory(0).List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPrepare(t *testing.T) {
	e := prepare(Entry{})
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, e.FinishedAt, e.StartedAt)

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	e = prepare(Entry{StartedAt: start, FinishedAt: start.Add(3 * time.Second)})
	assert.Equal(t, 3*time.Second, e.Duration())
}
