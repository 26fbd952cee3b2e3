// Command seed prepares a local database: it creates a wholesaler, prints a
// session token for its owner and optionally hashes a system key for
// SYSTEM_KEY_HASH.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/settlements/internal/app"
	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/config"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
	"github.com/mmynk/settlements/pkg/logging"
)

func main() {
	owner := flag.String("owner", "user-wholesaler-1", "user ID of the wholesaler account owner")
	name := flag.String("name", "Demo Wholesale", "wholesaler display name")
	admin := flag.String("admin", "", "also print an admin token for this user ID")
	systemKey := flag.String("system_key", "", "raw system key to hash for SYSTEM_KEY_HASH")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logging.Setup()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	wholesaler, err := store.GetWholesalerByOwner(ctx, *owner)
	if errors.Is(err, storage.ErrNotFound) {
		wholesaler = &models.Wholesaler{OwnerUserID: *owner, Name: *name}
		err = store.CreateWholesaler(ctx, wholesaler)
	}
	if err != nil {
		slog.Error("Failed to seed wholesaler", "owner", *owner, "error", err)
		os.Exit(1)
	}
	fmt.Println("Wholesaler:", wholesaler.ID, wholesaler.Name)

	if cfg.JWTSecret != "" {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, *ttl)
		printToken(jwtManager, &models.Principal{UserID: *owner, Role: models.RoleWholesaler, LinkedWholesalerID: wholesaler.ID})
		if *admin != "" {
			printToken(jwtManager, &models.Principal{UserID: *admin, Role: models.RoleAdmin})
		}
	} else {
		slog.Warn("JWT_SECRET not set, skipping tokens")
	}

	if *systemKey != "" {
		hash, err := auth.HashSystemKey(*systemKey)
		if err != nil {
			slog.Error("Failed to hash system key", "error", err)
			os.Exit(1)
		}
		fmt.Println("SYSTEM_KEY_HASH=" + hash)
	}
}

func printToken(m *auth.JWTManager, p *models.Principal) {
	token, err := m.Generate(p)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", p.UserID, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Token (%s %s): %s\n", p.Role, p.UserID, token)
}
