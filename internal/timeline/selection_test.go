package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionClickProtocol(t *testing.T) {
	s := NewSelection(MinRangeWidth)

	require.Error(t, s.Click(3), "idle machine accepts no clicks")

	s.Arm(KindExtract)
	assert.Equal(t, SelectingExtract, s.Mode())

	require.NoError(t, s.Click(7))
	a, ok := s.Anchor()
	require.True(t, ok)
	assert.Equal(t, 7.0, a)

	require.NoError(t, s.Click(1))
	assert.Equal(t, ExtractReady, s.Mode())
	require.NotNil(t, s.ExtractRange())
	assert.Equal(t, Range{Start: 1, End: 7}, *s.ExtractRange())
	assert.Nil(t, s.DeleteRange())
}

func TestSelectionZeroWidthReturnsIdle(t *testing.T) {
	s := NewSelection(MinRangeWidth)
	s.Arm(KindDelete)
	require.NoError(t, s.Click(5))

	err := s.Click(5.05)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, Idle, s.Mode())
	assert.Nil(t, s.DeleteRange())
}

func TestSelectionClickOnReadyRestarts(t *testing.T) {
	s := NewSelection(MinRangeWidth)
	s.Arm(KindDelete)
	require.NoError(t, s.Click(2))
	require.NoError(t, s.Click(4))
	require.Equal(t, DeleteReady, s.Mode())

	require.NoError(t, s.Click(9))
	assert.Equal(t, SelectingDelete, s.Mode())
	a, ok := s.Anchor()
	assert.True(t, ok)
	assert.Equal(t, 9.0, a)
	assert.Nil(t, s.DeleteRange())
}

func TestSelectionCommit(t *testing.T) {
	s := NewSelection(MinRangeWidth)
	s.Arm(KindDelete)
	require.NoError(t, s.Click(2))
	require.NoError(t, s.Click(4))

	_, err := s.Commit(KindExtract)
	require.ErrorIs(t, err, ErrIllegalCommit)
	assert.Equal(t, DeleteReady, s.Mode(), "wrong-kind commit leaves state alone")

	r, err := s.Commit(KindDelete)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 2, End: 4}, r)
	assert.Equal(t, Idle, s.Mode())

	_, err = s.Commit(KindDelete)
	assert.True(t, errors.Is(err, ErrIllegalCommit))
}

func TestSelectionRevalidate(t *testing.T) {
	s := NewSelection(MinRangeWidth)
	s.Arm(KindExtract)
	require.NoError(t, s.Click(2))
	require.NoError(t, s.Click(4))

	assert.False(t, s.Revalidate(10), "range still inside the asset")
	assert.Equal(t, ExtractReady, s.Mode())

	assert.True(t, s.Revalidate(3.5), "range would have to shrink")
	assert.Equal(t, Idle, s.Mode())

	s.Arm(KindDelete)
	require.NoError(t, s.Click(8))
	assert.True(t, s.Revalidate(5), "anchor past the new end")
	assert.Equal(t, Idle, s.Mode())
}
