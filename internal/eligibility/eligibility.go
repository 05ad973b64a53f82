// Package eligibility holds the gender/country admission rule for new profiles.
package eligibility

import (
	"slices"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

const (
	MaleRejected   = "Male users are only allowed from India."
	FemaleRejected = "Female users are only allowed from select countries."
)

var (
	MaleCountries   = []string{"India"}
	FemaleCountries = []string{"Moldova", "Latvia", "Ukraine", "Russia", "Armenia", "Djibouti", "Hong Kong", "Macao"}
)

// Region is one of the supported female regions shown on the landing page.
type Region struct {
	Name  string `json:"name"`
	Flag  string `json:"flag"`
	Image string `json:"img"`
}

var SupportedRegions = []Region{
	{Name: "Moldova", Flag: "🇲🇩", Image: "https://picsum.photos/seed/Moldova/400/300"},
	{Name: "Latvia", Flag: "🇱🇻", Image: "https://picsum.photos/seed/Latvia/400/300"},
	{Name: "Ukraine", Flag: "🇺🇦", Image: "https://picsum.photos/seed/Ukraine/400/300"},
	{Name: "Russia", Flag: "🇷🇺", Image: "https://images.unsplash.com/photo-1513326738677-b964603b136d?auto=format&fit=crop&q=80&w=400"},
	{Name: "Armenia", Flag: "🇦🇲", Image: "https://picsum.photos/seed/Armenia/400/300"},
	{Name: "Djibouti", Flag: "🇩🇯", Image: "https://picsum.photos/seed/Djibouti/400/300"},
	{Name: "Hong Kong", Flag: "🇭🇰", Image: "https://picsum.photos/seed/HongKong/400/300"},
	{Name: "Macao", Flag: "🇲🇴", Image: "https://picsum.photos/seed/Macao/400/300"},
}

// Check returns "" when the pair is admissible, otherwise the message to show
// against the country field. Unknown genders are left to form validation.
func Check(gender, country string) string {
	switch gender {
	case db.GenderMale:
		if !slices.Contains(MaleCountries, country) {
			return MaleRejected
		}
	case db.GenderFemale:
		if !slices.Contains(FemaleCountries, country) {
			return FemaleRejected
		}
	}
	return ""
}

// Opposite returns the gender shown in the discovery feed.
func Opposite(gender string) string {
	if gender == db.GenderMale {
		return db.GenderFemale
	}
	return db.GenderMale
}
