package pg

import (
	"testing"
	"testing/fstest"

	migrations "github.com/dropDatabas3/socialgate/migrations/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(migrations.FS, ".").ParseMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migs)

	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "init", migs[0].Name)
	assert.Contains(t, migs[0].Up, "CREATE TABLE IF NOT EXISTS app_user")
	assert.Contains(t, migs[0].Down, "DROP TABLE IF EXISTS provider_token")
	for i := 1; i < len(migs); i++ {
		assert.Less(t, migs[i-1].Version, migs[i].Version)
	}
}

func TestParseMigrations_RequiresUp(t *testing.T) {
	fsys := fstest.MapFS{
		"0003_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
		"README.md":            {Data: []byte("ignored")},
	}
	_, err := NewMigrator(fsys, ".").ParseMigrations()
	assert.Error(t, err)
}
