// smoke-ideas runs an end-to-end scenario against live auth and ideas
// services: register a fresh account, create an idea, verify both listings,
// update it, delete it, and verify convergence.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"redgit.org/internal/api"
	"redgit.org/internal/ideas"
	"redgit.org/internal/obs"
	"redgit.org/internal/session"
	"redgit.org/internal/store"
)

func main() {
	authURL := os.Getenv("REDGIT_AUTH_URL")
	if authURL == "" {
		authURL = "http://localhost:8081/api"
	}
	ideasURL := os.Getenv("REDGIT_IDEAS_URL")
	if ideasURL == "" {
		ideasURL = "http://localhost:8082/api/ideas"
	}

	obs.Init()
	kv := store.NewMemory()
	mgr := session.New(api.NewClient("auth", authURL), kv)
	ideaStore := ideas.New(api.NewClient("ideas", ideasURL), mgr)

	ctx, cancel := api.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	email := fmt.Sprintf("smoke-%d@example.com", rand.Int63())
	if err := mgr.Register(ctx, "Smoke Tester", email, "Smoke1#pass"); err != nil {
		log.Fatalf("register %s: %v", email, err)
	}
	if !mgr.IsAuthenticated() {
		log.Fatal("register succeeded but session is not authenticated")
	}

	ideaStore.Bootstrap(ctx)
	if n := len(ideaStore.Mine()); n != 0 {
		log.Fatalf("fresh account already owns %d ideas", n)
	}

	title := fmt.Sprintf("Smoke idea %d", rand.Intn(1_000_000))
	if err := ideaStore.Create(ctx, title, "created by the smoke scenario, safe to delete"); err != nil {
		log.Fatalf("create: %v", err)
	}

	mine := ideaStore.Mine()
	if len(mine) != 1 || mine[0].Title != title {
		log.Fatalf("unexpected my-ideas after create: %+v", mine)
	}
	created := mine[0]
	if !ideaStore.IsOwner(created) {
		log.Fatalf("ownership not attributed: authorId=%q", created.AuthorID)
	}

	if err := ideaStore.Update(ctx, created.ID, title+" (updated)", "updated by the smoke scenario, safe to delete"); err != nil {
		log.Fatalf("update: %v", err)
	}
	got, ok := ideaStore.GetByID(created.ID)
	if !ok || got.Title != title+" (updated)" {
		log.Fatalf("update did not converge: %+v", got)
	}

	if err := ideaStore.Delete(ctx, created.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	if _, ok := ideaStore.GetByID(created.ID); ok {
		log.Fatal("idea still cached after confirmed delete")
	}

	mgr.Logout()
	if mgr.IsAuthenticated() {
		log.Fatal("logout did not clear session")
	}

	fmt.Printf("✅ ideas smoke test passed: account=%s idea=%s\n", email, created.ID)
}
