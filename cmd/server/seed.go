package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/credentials"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/middleware"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
)

// seedDevUsers creates two sample accounts and logs ready-to-use bearer
// tokens, so the full invite/redeem/confirm flow can be exercised with curl
// against a fresh in-memory instance.
func seedDevUsers(ctx context.Context, users store.UserStore, secret string, log *slog.Logger) {
	seed := []struct {
		email    string
		fullName string
	}{
		{"alice@example.com", "Alice Kim"},
		{"bob@example.com", "Bob Kim"},
	}

	hash, err := credentials.HashPassword("password123")
	if err != nil {
		log.Error("dev seed: failed to hash password", "error", err)
		return
	}

	for _, entry := range seed {
		user, err := models.NewUser(id.NewUserID(), entry.email, entry.fullName, hash, time.Now())
		if err != nil {
			log.Error("dev seed: failed to build user", "email", entry.email, "error", err)
			continue
		}
		if err := users.Save(ctx, user); err != nil {
			log.Error("dev seed: failed to save user", "email", entry.email, "error", err)
			continue
		}
		bearer, err := middleware.SignAccessToken(secret, user.ID, 24*time.Hour)
		if err != nil {
			log.Error("dev seed: failed to sign token", "email", entry.email, "error", err)
			continue
		}
		log.Info("dev seed user ready",
			"email", entry.email,
			"user_id", user.ID,
			"password", "password123",
			"bearer", bearer,
		)
	}
}
