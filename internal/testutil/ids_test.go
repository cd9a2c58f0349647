package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("hive")
	assert.Equal(t, "hive-001", g.Generate())
	assert.Equal(t, "hive-002", g.Generate())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "id-001", g.Generate())
}
