// Command main runs the database seeder for Photoshare.
package main

import (
	"flag"
	"log"

	"photoshare/internal/bootstrap"
	"photoshare/internal/config"
	"photoshare/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	presetPath := flag.String("preset", "", "Path to a YAML seed preset (default preset when empty)")
	users := flag.Int("users", -1, "Override the number of random users")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash the demo password with minimum bcrypt cost")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	_ = godotenv.Load()

	preset := seed.DefaultPreset
	if *presetPath != "" {
		loaded, err := seed.LoadPreset(*presetPath)
		if err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
		preset = *loaded
	}
	if *users >= 0 {
		preset.Random.Users = *users
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Seeding preset %q (clean=%v)", preset.Name, *shouldClean)
	if _, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		Preset: &preset,
		Clean:  *shouldClean,
		Seed:   seed.Options{Seed: *randomSeed, FastHash: *fast},
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done. Every seeded account uses the password %q", seed.DefaultPassword)
}
