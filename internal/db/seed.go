package db

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seeddata/scripted_profiles.yaml
var defaultScriptedProfiles []byte

// ScriptedProfile is one entry of the scripted profiles YAML file.
type ScriptedProfile struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Age      int    `yaml:"age"`
	Gender   string `yaml:"gender"`
	Country  string `yaml:"country"`
	Bio      string `yaml:"bio"`
	PhotoURL string `yaml:"photo_url"`
}

type scriptedFile struct {
	Profiles []ScriptedProfile `yaml:"profiles"`
}

// LoadScriptedProfiles parses the YAML file at path, or the embedded default when path is empty.
func LoadScriptedProfiles(path string) ([]ScriptedProfile, error) {
	data := defaultScriptedProfiles
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scripted profiles: %w", err)
		}
		data = b
	}

	var f scriptedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scripted profiles: %w", err)
	}
	for i, p := range f.Profiles {
		if p.ID == "" || p.Email == "" || p.Name == "" {
			return nil, fmt.Errorf("scripted profile #%d: id, email and name are required", i)
		}
		if p.Gender != GenderMale && p.Gender != GenderFemale {
			return nil, fmt.Errorf("scripted profile %s: invalid gender %q", p.ID, p.Gender)
		}
	}
	return f.Profiles, nil
}

// SeedScriptedProfiles upserts scripted accounts and their profiles.
// Existing rows keep their identity; descriptive fields are refreshed.
func SeedScriptedProfiles(db *gorm.DB, profiles []ScriptedProfile) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, p := range profiles {
			acc := Account{ID: p.ID, Email: p.Email}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acc).Error; err != nil {
				return fmt.Errorf("failed to seed account %s: %w", p.ID, err)
			}

			prof := Profile{
				ID:       p.ID,
				Name:     p.Name,
				Age:      p.Age,
				Gender:   p.Gender,
				Country:  p.Country,
				Bio:      p.Bio,
				PhotoURL: p.PhotoURL,
				IsBot:    true,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "age", "bio", "photo_url", "is_bot"}),
			}).Create(&prof).Error
			if err != nil {
				return fmt.Errorf("failed to seed profile %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// SeedDemoData resets the database and populates it with scripted profiles plus
// demo members and decisions. Development only.
//
// Behavior:
//  1. Clears messages, matches, decisions, profiles and accounts.
//  2. Seeds the scripted profiles.
//  3. Creates 10 male members from India and 10 female members from the
//     designated countries.
//  4. Generates decisions (~70% accepts) between opposite genders.
func SeedDemoData(db *gorm.DB, scripted []ScriptedProfile) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"messages", "matches", "decisions", "payments", "magic_links", "profiles", "accounts"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := SeedScriptedProfiles(db, scripted); err != nil {
		return err
	}

	femaleCountries := []string{"Moldova", "Latvia", "Ukraine", "Russia", "Armenia", "Djibouti", "Hong Kong", "Macao"}

	var members []Profile
	for i := 1; i <= 20; i++ {
		id := uuid.NewString()
		gender, country := GenderMale, "India"
		if i > 10 {
			gender = GenderFemale
			country = femaleCountries[r.Intn(len(femaleCountries))]
		}

		if err := db.Create(&Account{ID: id, Email: fmt.Sprintf("member%d@example.com", i)}).Error; err != nil {
			return fmt.Errorf("failed to seed account: %w", err)
		}
		p := Profile{
			ID:       id,
			Name:     fmt.Sprintf("Member %d", i),
			Age:      18 + r.Intn(20),
			Gender:   gender,
			Country:  country,
			Bio:      "Demo member",
			PhotoURL: fmt.Sprintf("https://picsum.photos/seed/member%d/600/800", i),
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		members = append(members, p)
	}

	for _, actor := range members {
		for j := 0; j < 6; j++ {
			target := members[r.Intn(len(members))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}
			direction := DirectionReject
			if r.Intn(100) < 70 {
				direction = DirectionAccept
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
			}).Create(&Decision{ActorID: actor.ID, RecipientID: target.ID, Direction: direction}).Error
			if err != nil {
				return fmt.Errorf("failed to seed decision: %w", err)
			}
		}
	}

	return nil
}
