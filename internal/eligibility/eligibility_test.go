package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

func TestCheck(t *testing.T) {
	assert.Empty(t, Check(db.GenderMale, "India"))
	assert.Equal(t, MaleRejected, Check(db.GenderMale, "Latvia"))

	for _, c := range FemaleCountries {
		assert.Empty(t, Check(db.GenderFemale, c), c)
	}
	assert.Equal(t, FemaleRejected, Check(db.GenderFemale, "India"))
	assert.Equal(t, FemaleRejected, Check(db.GenderFemale, "France"))

	// case matters: the stored values are canonical names
	assert.Equal(t, MaleRejected, Check(db.GenderMale, "india"))
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, db.GenderFemale, Opposite(db.GenderMale))
	assert.Equal(t, db.GenderMale, Opposite(db.GenderFemale))
}

func TestCountryLists(t *testing.T) {
	assert.Equal(t, []string{"India"}, MaleCountries)
	assert.Len(t, FemaleCountries, 8)
	assert.Contains(t, FemaleCountries, "Macao")
	assert.Len(t, SupportedRegions, len(FemaleCountries))
}
