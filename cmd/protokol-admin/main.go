// Command protokol-admin bootstraps or repairs the administrator
// account. The API has no unauthenticated path to the first admin, so
// deployments run this once against a fresh database.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/store"
)

var (
	dbURL    = flag.String("db-url", getEnv("DATABASE_URL", "postgres://localhost/protokol?sslmode=disable"), "PostgreSQL connection URL")
	username = flag.String("username", "admin", "Administrator username")
	email    = flag.String("email", "", "Administrator email (optional)")
	password = flag.String("password", getEnv("ADMIN_PASSWORD", ""), "Administrator password (or ADMIN_PASSWORD)")
	promote  = flag.Bool("promote", false, "Promote an existing user to admin instead of creating one")
)

func main() {
	flag.Parse()

	if *password == "" && !*promote {
		log.Fatal("a password is required: pass -password or set ADMIN_PASSWORD")
	}

	st, err := store.Open(store.Config{
		URL:         *dbURL,
		MaxConns:    2,
		MinConns:    1,
		Timeout:     10 * time.Second,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *promote {
		promoteUser(ctx, st)
		return
	}
	createAdmin(ctx, st)
}

func createAdmin(ctx context.Context, st *store.SQLStore) {
	hash, err := auth.HashPassword(*password, auth.DefaultBcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &auth.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
	}
	if err := st.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Fatalf("User %q already exists; use -promote to grant the admin role", *username)
		}
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Created admin user %q (id %s)", user.Username, user.ID)
}

func promoteUser(ctx context.Context, st *store.SQLStore) {
	user, err := st.Users().GetByLogin(ctx, *username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Fatalf("User %q does not exist", *username)
		}
		log.Fatalf("Failed to look up user: %v", err)
	}

	user.Role = auth.RoleAdmin
	if *password != "" {
		hash, err := auth.HashPassword(*password, auth.DefaultBcryptCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		user.PasswordHash = hash
	}

	if err := st.Users().Update(ctx, user); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	log.Printf("Promoted %q to admin", user.Username)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
