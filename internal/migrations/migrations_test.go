package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(migs []migration) []string {
	out := []string{}
	for _, mig := range migs {
		out = append(out, mig.Name)
	}
	return out
}

func TestListMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql":    {Data: []byte("SELECT 10")},
		"V2__second.sql":    {Data: []byte("SELECT 2")},
		"V1__first.sql":     {Data: []byte("SELECT 1")},
		"seed_defaults.sql": {Data: []byte("SELECT 0")},
		"README.md":         {Data: []byte("ignored")},
		"nested/V3__x.sql":  {Data: []byte("ignored")},
	}
	migs, err := listMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1__first.sql", "V2__second.sql", "V10__later.sql", "seed_defaults.sql"}, names(migs))
}

func TestPendingSkipsAppliedNamesAndVersions(t *testing.T) {
	migs := []migration{{Name: "V1__first.sql"}, {Name: "V2__renamed.sql"}, {Name: "V3__third.sql"}}
	applied := appliedSet{
		names:    map[string]bool{"V1__first.sql": true},
		versions: map[string]bool{"2": true},
	}
	assert.Equal(t, []string{"V3__third.sql"}, names(pending(migs, applied)))
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, "12", parseVersion("V12__add_index.sql"))
	assert.Equal(t, "", parseVersion("seed.sql"))
	value, ok := parseVersionNumber("V7__x.sql")
	assert.True(t, ok)
	assert.Equal(t, 7, value)
	_, ok = parseVersionNumber("Vx__x.sql")
	assert.False(t, ok)
}

func TestEmbeddedContainsSectionsSchema(t *testing.T) {
	migs, err := listMigrations(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "V1__sections.sql", migs[0].Name)

	content, err := fs.ReadFile(Embedded(), migs[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS sections")
}
