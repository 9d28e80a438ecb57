package infra

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	fsys := fstest.MapFS{
		"scripts/a.sh": {Data: []byte("hello")},
	}

	got, err := hashFile(fsys, "scripts/a.sh")
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)

	_, err = hashFile(fsys, "scripts/missing.sh")
	assert.Error(t, err)
}

func TestDatabaseUserDataIsEmbedded(t *testing.T) {
	b, err := scripts.ReadFile(databaseUserData)
	require.NoError(t, err)
	assert.Contains(t, string(b), "mongod")
}
