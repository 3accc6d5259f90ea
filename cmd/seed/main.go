// seed creates the first superuser account for a fresh deployment.
// Idempotent: exits without changes when the account already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"auth-boilerplate/backend/internal/config"
	"auth-boilerplate/backend/internal/db"
	"auth-boilerplate/backend/internal/security"
	"auth-boilerplate/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.FirstSuperuserPassword == "" {
		log.Fatal("FIRST_SUPERUSER_PASSWORD is not set")
	}
	if violations := security.ValidatePassword(cfg.FirstSuperuserPassword); len(violations) > 0 {
		log.Fatalf("FIRST_SUPERUSER_PASSWORD rejected: %s", strings.Join(violations, "; "))
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewPostgresRepository(conn)

	existing, err := repo.GetByEmail(ctx, cfg.FirstSuperuserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", cfg.FirstSuperuserEmail)
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hashed, err := hasher.Hash(cfg.FirstSuperuserPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	username := cfg.FirstSuperuserEmail
	if i := strings.IndexByte(username, '@'); i > 0 {
		username = username[:i]
	}

	user, err := repo.Create(ctx, repository.CreateUser{
		Email:          cfg.FirstSuperuserEmail,
		Username:       username,
		FullName:       "Admin",
		HashedPassword: hashed,
		IsActive:       true,
		IsSuperuser:    true,
	})
	if err != nil {
		log.Fatalf("create superuser: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Superuser: %s (id %d)\n", user.Email, user.ID)
}
