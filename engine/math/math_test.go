package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 3, FloorDiv(127, 32))
	assert.Equal(t, 4, FloorDiv(128, 32))
	assert.Equal(t, 0, FloorDiv(5, 0))
}

func TestRect(t *testing.T) {
	outer := NewRect(10, 10, 100, 50)
	assert.Equal(t, 110, outer.Right())
	assert.Equal(t, 60, outer.Bottom())
	assert.True(t, outer.Contains(NewRect(10, 10, 100, 50)))
	assert.True(t, outer.Contains(NewRect(20, 20, 5, 5)))
	assert.False(t, outer.Contains(NewRect(20, 20, 100, 5)))
	assert.Equal(t, Size{Width: 100, Height: 50}, outer.Size())
	assert.Equal(t, "100x50", outer.Size().String())
	assert.True(t, Size{Width: 0, Height: 4}.Empty())
}
