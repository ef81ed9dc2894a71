package wlclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin32(t *testing.T) {
	assert.Equal(t, uint32(2), min32(2, 4))
	assert.Equal(t, uint32(2), min32(4, 2))
	assert.Equal(t, uint32(3), min32(3, 3))
}
