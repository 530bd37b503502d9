package memzero

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	Zero(nil)
}

func TestKey(t *testing.T) {
	k := [32]byte{1, 2, 3}
	Key(&k)
	assert.Equal(t, [32]byte{}, k)

	Key(nil)
}
