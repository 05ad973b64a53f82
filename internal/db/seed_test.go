package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
)

func TestLoadScriptedProfiles_Embedded(t *testing.T) {
	profiles, err := db.LoadScriptedProfiles("")
	require.NoError(t, err)
	require.NotEmpty(t, profiles)

	for _, p := range profiles {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Country)
	}
}

func TestLoadScriptedProfiles_InvalidGender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - id: b1
    email: b1@x.test
    name: Bot
    gender: Robot
`), 0o600))

	_, err := db.LoadScriptedProfiles(path)
	assert.ErrorContains(t, err, "invalid gender")
}

func TestSeedScriptedProfiles_Idempotent(t *testing.T) {
	database := testutil.NewDB(t)
	profiles, err := db.LoadScriptedProfiles("")
	require.NoError(t, err)

	require.NoError(t, db.SeedScriptedProfiles(database, profiles))
	require.NoError(t, db.SeedScriptedProfiles(database, profiles))

	var count int64
	require.NoError(t, database.Model(&db.Profile{}).Where("is_bot = ?", true).Count(&count).Error)
	assert.Equal(t, int64(len(profiles)), count)
}

func TestSeedDemoData(t *testing.T) {
	database := testutil.NewDB(t)
	profiles, err := db.LoadScriptedProfiles("")
	require.NoError(t, err)

	require.NoError(t, db.SeedDemoData(database, profiles))

	var members int64
	require.NoError(t, database.Model(&db.Profile{}).Where("is_bot = ?", false).Count(&members).Error)
	assert.Equal(t, int64(20), members)

	var sameGender int64
	require.NoError(t, database.Raw(`
		SELECT COUNT(*) FROM decisions d
		JOIN profiles a ON a.id = d.actor_id
		JOIN profiles b ON b.id = d.recipient_id
		WHERE a.gender = b.gender`).Scan(&sameGender).Error)
	assert.Zero(t, sameGender)
}
