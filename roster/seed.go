package roster

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the initial state of one activity.
type Seed struct {
	Name     string `yaml:"name"`
	Activity `yaml:",inline"`
}

// seedFile is the on-disk layout read by LoadSeed.
type seedFile struct {
	Activities []Seed `yaml:"activities"`
}

// DefaultSeed returns the activities the service starts with when no seed file
// is configured.
func DefaultSeed() []Seed {
	return []Seed{
		{
			Name: "Chess Club",
			Activity: Activity{
				Description:     "Learn strategies and compete in chess tournaments",
				Schedule:        "Fridays, 3:30 PM - 5:00 PM",
				MaxParticipants: 12,
				Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
			},
		},
		{
			Name: "Programming Class",
			Activity: Activity{
				Description:     "Learn programming fundamentals and build software projects",
				Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
				MaxParticipants: 20,
				Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
			},
		},
		{
			Name: "Gym Class",
			Activity: Activity{
				Description:     "Physical education and sports activities",
				Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
				MaxParticipants: 30,
				Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
			},
		},
		{
			Name: "Soccer Team",
			Activity: Activity{
				Description:     "Join the school soccer team and compete in matches",
				Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
				MaxParticipants: 22,
				Participants:    []string{"liam@mergington.edu", "noah@mergington.edu"},
			},
		},
		{
			Name: "Basketball Team",
			Activity: Activity{
				Description:     "Practice and play basketball with the school team",
				Schedule:        "Wednesdays and Fridays, 3:30 PM - 5:00 PM",
				MaxParticipants: 15,
				Participants:    []string{"ava@mergington.edu", "mia@mergington.edu"},
			},
		},
		{
			Name: "Art Club",
			Activity: Activity{
				Description:     "Explore your creativity through painting and drawing",
				Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
				MaxParticipants: 15,
				Participants:    []string{"amelia@mergington.edu", "harper@mergington.edu"},
			},
		},
		{
			Name: "Drama Club",
			Activity: Activity{
				Description:     "Act, direct, and produce plays and performances",
				Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
				MaxParticipants: 20,
				Participants:    []string{"ella@mergington.edu", "scarlett@mergington.edu"},
			},
		},
		{
			Name: "Math Club",
			Activity: Activity{
				Description:     "Solve challenging problems and participate in math competitions",
				Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
				MaxParticipants: 10,
				Participants:    []string{"james@mergington.edu", "benjamin@mergington.edu"},
			},
		},
		{
			Name: "Debate Team",
			Activity: Activity{
				Description:     "Develop public speaking and argumentation skills",
				Schedule:        "Fridays, 4:00 PM - 5:30 PM",
				MaxParticipants: 12,
				Participants:    []string{"charlotte@mergington.edu", "henry@mergington.edu"},
			},
		},
	}
}

// LoadSeed reads activities from the YAML file at path.
//
//	activities:
//	  - name: Chess Club
//	    description: Learn strategies and compete in chess tournaments
//	    schedule: Fridays, 3:30 PM - 5:00 PM
//	    max_participants: 12
//	    participants: [michael@mergington.edu]
func LoadSeed(path string) ([]Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer f.Close()

	var sf seedFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to decode YAML seed file: %w", err)
	}

	if err := validateSeed(sf.Activities); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return sf.Activities, nil
}

func validateSeed(seed []Seed) error {
	if len(seed) == 0 {
		return errors.New("seed contains no activities")
	}

	names := make(map[string]bool, len(seed))
	for i, sd := range seed {
		if sd.Name == "" {
			return fmt.Errorf("activity %d has no name", i)
		}
		if names[sd.Name] {
			return fmt.Errorf("duplicate activity %q", sd.Name)
		}
		names[sd.Name] = true

		if sd.MaxParticipants <= 0 {
			return fmt.Errorf("activity %q: max_participants must be positive", sd.Name)
		}

		emails := make(map[string]bool, len(sd.Participants))
		for _, email := range sd.Participants {
			if email == "" {
				return fmt.Errorf("activity %q: empty participant email", sd.Name)
			}
			if emails[email] {
				return fmt.Errorf("activity %q: participant %q listed twice", sd.Name, email)
			}
			emails[email] = true
		}
	}
	return nil
}
