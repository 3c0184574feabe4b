// Seed script for populating a demo knowledge network.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/Harshitk-cp/knet/internal/config"
	"github.com/Harshitk-cp/knet/internal/contradiction"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/service"
	"github.com/Harshitk-cp/knet/internal/store"
	"go.uber.org/zap"
)

type seedStatement struct {
	key        string
	kind       domain.StatementKind
	content    string
	confidence *float64
	tags       []string
	parents    []string
}

var network = []seedStatement{
	{key: "food", kind: domain.KindAxiom, content: "Humans need food to survive", tags: []string{"biology", "needs"}},
	{key: "time", kind: domain.KindAxiom, content: "Time is limited", confidence: domain.Float64(0.9), tags: []string{"time"}},
	{key: "cooking", kind: domain.KindAxiom, content: "Cooking takes time", confidence: domain.Float64(0.85), tags: []string{"time", "food"}},
	{key: "prioritize", kind: domain.KindTheory, content: "Food must be prioritized under time limits", tags: []string{"planning"}, parents: []string{"food", "time"}},
	{key: "batch", kind: domain.KindTheory, content: "Cooking in batches saves time", confidence: domain.Float64(0.7), tags: []string{"planning", "food"}, parents: []string{"cooking", "time"}},
	{key: "plan", kind: domain.KindConclusion, content: "Plan meals for the week ahead", tags: []string{"planning"}, parents: []string{"prioritize", "batch"}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	graphStore, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StorePath,
		Backups:     cfg.StoreBackups,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	if c, ok := graphStore.(store.Closer); ok {
		defer c.Close()
	}

	g, err := service.LoadGraph(ctx, graphStore)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	fmt.Printf("Opened %s store with %d statement(s)\n", cfg.StoreDriver, g.Len())

	svc := service.NewStatementService(g, graphStore, contradiction.NewDetector(), zap.NewNop())

	ids := make(map[string]domain.StatementID, len(network))
	for _, s := range network {
		parents := make([]domain.StatementID, 0, len(s.parents))
		for _, p := range s.parents {
			parents = append(parents, ids[p])
		}
		res, err := svc.Create(ctx, service.CreateStatementInput{
			Kind:        s.kind,
			Content:     s.content,
			Confidence:  s.confidence,
			Tags:        s.tags,
			DerivedFrom: parents,
			Force:       true,
		})
		if err != nil {
			log.Fatalf("Failed to create %q: %v", s.key, err)
		}
		ids[s.key] = res.Statement.ID
		fmt.Printf("Created %s [%s]: %s\n", res.Statement.ID, s.kind, truncate(s.content, 50))
	}

	fmt.Println("\n=== Seed Complete ===")

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = generateAPIKey()
		fmt.Println("\nNo API_KEY configured. To require one, add this to your .env.secret:")
		fmt.Printf("API_KEY=%s\n", apiKey)
	}
	fmt.Println("\nTo inspect the network, use:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost%s/v1/statements/%s/chain\n", apiKey, cfg.ServerAddr(), ids["plan"])
	fmt.Printf("curl -H 'Authorization: Bearer %s' 'http://localhost%s/v1/search?q=time'\n", apiKey, cfg.ServerAddr())
}

func generateAPIKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}
	return "kn_" + base64.URLEncoding.EncodeToString(b)[:40]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
