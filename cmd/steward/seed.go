package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/config"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo departments and an admin account",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoDepartments = []string{
	"Worship",
	"Youth Ministry",
	"Outreach",
	"Children's Ministry",
	"Facilities",
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool, cfg.Auth.SessionTTL)
	departmentStore := department.NewStore(pool)

	// Check if seed has already run.
	count, err := userStore.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if count > 0 {
		slog.Info("accounts already exist, skipping seed")
		return nil
	}

	for _, name := range demoDepartments {
		d, err := departmentStore.Create(ctx, name)
		if err != nil {
			return fmt.Errorf("creating department %q: %w", name, err)
		}
		slog.Info("created department", "name", d.Name)
	}

	password, err := generatePassword()
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	admin, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    "admin@example.org",
		Password: password,
		Name:     "Administrator",
		Role:     auth.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	slog.Info("created admin account", "id", admin.ID, "email", admin.Email)
	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Departments: %d created\n", len(demoDepartments))
	fmt.Printf("Admin:       %s\n", admin.Email)
	fmt.Printf("Password:    %s\n", password)
	fmt.Printf("\nSign in at http://localhost:8080/ and change the password.\n")

	return nil
}

// generatePassword produces a 24-character hex password from 12 random bytes.
func generatePassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
