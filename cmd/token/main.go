// Command token は開発用のBearerトークンを発行します。
//
//	go run ./cmd/token -user 1 -email dev@example.com -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "calorievisor_backend/internal/platform/jwt"
)

func main() {
	userID := flag.Uint("user", 1, "user id written to the sub claim")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		log.Fatalf("%s is not set", jwtmw.EnvKeyJWTSecret)
	}

	token, err := jwtmw.NewGenerator(secret, *ttl).GenerateToken(*userID, *email)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
