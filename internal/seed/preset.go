package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset describes a seed run. Named accounts are created first, then
// random users, then engagement across everything.
type Preset struct {
	Name     string        `yaml:"name"`
	Accounts []AccountSpec `yaml:"accounts"`
	Random   RandomSpec    `yaml:"random"`
}

// AccountSpec is a fixed demo account with hand-written photos.
type AccountSpec struct {
	LoginName  string      `yaml:"login_name"`
	FirstName  string      `yaml:"first_name"`
	LastName   string      `yaml:"last_name"`
	Occupation string      `yaml:"occupation"`
	Location   string      `yaml:"location"`
	Photos     []PhotoSpec `yaml:"photos"`
}

type PhotoSpec struct {
	Caption  string   `yaml:"caption"`
	URL      string   `yaml:"url"`
	Comments []string `yaml:"comments"`
}

// RandomSpec sizes generated content.
type RandomSpec struct {
	Users            int     `yaml:"users"`
	PhotosPerUser    int     `yaml:"photos_per_user"`
	CommentsPerPhoto int     `yaml:"comments_per_photo"`
	LikeProbability  float64 `yaml:"like_probability"`
}

// DefaultPreset is used when no preset file is given.
var DefaultPreset = Preset{
	Name: "default",
	Accounts: []AccountSpec{
		{
			LoginName:  "demo",
			FirstName:  "Demo",
			LastName:   "User",
			Occupation: "Photographer",
			Photos: []PhotoSpec{
				{Caption: "Sunset over the bay", Comments: []string{"Stunning colors!"}},
				{Caption: "Morning fog"},
			},
		},
	},
	Random: RandomSpec{Users: 20, PhotosPerUser: 3, CommentsPerPhoto: 2, LikeProbability: 0.25},
}

// ParsePreset decodes and validates a YAML preset.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPreset reads a preset file from disk.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	return ParsePreset(data)
}

func (p *Preset) Validate() error {
	seen := make(map[string]bool, len(p.Accounts))
	for i, a := range p.Accounts {
		login := strings.TrimSpace(a.LoginName)
		if login == "" {
			return fmt.Errorf("account %d: login_name is required", i)
		}
		if seen[login] {
			return fmt.Errorf("account %d: duplicate login_name %q", i, login)
		}
		seen[login] = true
	}
	if p.Random.Users < 0 || p.Random.PhotosPerUser < 0 || p.Random.CommentsPerPhoto < 0 {
		return errors.New("random counts must not be negative")
	}
	if p.Random.LikeProbability < 0 || p.Random.LikeProbability > 1 {
		return errors.New("like_probability must be between 0 and 1")
	}
	return nil
}
