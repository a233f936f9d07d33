//go:build ignore

// prints an access token shaped like the ones the SEOScribe API issues, for
// exercising login and local expiry detection against a fake API.
//
//	go run scripts/gen_test_token.go [email] [ttl]
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"codeberg.org/seoscribe/dashboard/internal/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	email := "test@seoscribe.dev"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}

	ttl := 24 * time.Hour
	if len(os.Args) > 2 {
		d, err := time.ParseDuration(os.Args[2])
		if err != nil {
			log.Fatalf("invalid ttl %q: %v", os.Args[2], err)
		}
		ttl = d
	}

	// the client never verifies signatures, any key will do
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "test-secret"
	}

	now := time.Now()
	claims := auth.Claims{
		UserID: uuid.New().String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "seoscribe-test",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Printf("User ID: %s\n", claims.UserID)
	fmt.Printf("Email:   %s\n", email)
	fmt.Printf("Expires: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
	fmt.Printf("Expired locally: %v\n\n", auth.TokenExpired(token, time.Now()))
	fmt.Println(token)
	fmt.Println()
	fmt.Printf("Sign in with: seoscribe login --token %s\n", token)
}
