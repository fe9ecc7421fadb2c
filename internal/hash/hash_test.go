package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plos-clan/cara/internal/hash"
)

func TestBytesDeterministic(t *testing.T) {
	assert.Equal(t, hash.String("foo"), hash.String("foo"))
	assert.NotEqual(t, hash.String("foo"), hash.String("bar"))
}

func TestAddCommutative(t *testing.T) {
	a, b := hash.String("a"), hash.String("b")
	assert.Equal(t, a.Add(b), b.Add(a))
}

func TestMergeOrderMatters(t *testing.T) {
	a, b := hash.String("a"), hash.String("b")
	assert.NotEqual(t, a.Merge(b), b.Merge(a))
}

func TestIntDistinct(t *testing.T) {
	assert.NotEqual(t, hash.Int(1), hash.Int(2))
}
