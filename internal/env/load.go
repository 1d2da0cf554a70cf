package env

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory when one exists.
// Extra files (e.g. ".env.local") are loaded after it without overriding.
func LoadEnv(files ...string) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			log.Printf("Skipping env file %s: %v", f, err)
		}
	}
}
