package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartLines(t *testing.T) {
	var c Cart
	c.SetLine("a", 1)
	c.SetLine("b", 2)
	c.SetLine("a", 5)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Line("a").Quantity)
	assert.Equal(t, []string{"a", "b"}, c.ProductIDs())

	assert.True(t, c.RemoveLine("a"))
	assert.False(t, c.RemoveLine("a"))
	assert.Nil(t, c.Line("a"))
	assert.Equal(t, []string{"b"}, c.ProductIDs())
}
