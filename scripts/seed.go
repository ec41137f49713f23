package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/storedir/backend/internal/adapters/database"
	"github.com/storedir/backend/internal/adapters/search"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	"github.com/storedir/backend/internal/infrastructure/clients/typesense"
	"github.com/storedir/backend/pkg/config"
	"github.com/storedir/backend/pkg/slug"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchRepo repositories.StoreSearchRepository
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err == nil {
		if err := tsClient.InitSchema(context.Background()); err != nil {
			log.Printf("Failed to init Typesense schema: %v", err)
		}
		searchRepo = search.NewTypesenseAdapter(tsClient)
	}

	storeRepo := database.NewStoreAdapter(pgClient)
	userRepo := database.NewUserAdapter(pgClient)
	reviewRepo := database.NewReviewAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				hearts,
				reviews,
				stores,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed users
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	users := []entities.User{
		{ID: uuid.New().String(), Email: "wes@example.com", Name: "Wes", PasswordHash: string(hash), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Email: "debbie@example.com", Name: "Debbie", PasswordHash: string(hash), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Email: "beau@example.com", Name: "Beau", PasswordHash: string(hash), CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	for i := range users {
		if err := userRepo.Create(ctx, &users[i]); err != nil {
			log.Printf("Failed to create user %s: %v", users[i].Email, err)
		}
	}

	// 2. Seed stores
	type seedStore struct {
		name        string
		description string
		tags        []string
		address     string
		lat, lng    float64
		author      int
	}
	seeds := []seedStore{
		{"Beach Babys", "Ice cream, gelato and froyo by the boardwalk.", []string{"Wifi", "Family Friendly"}, "176 Cherry Street, Toronto", 43.6453, -79.3535, 0},
		{"Fortune Noodle House", "Hand-pulled noodles and late night dumplings.", []string{"Open Late", "Licensed"}, "474 Spadina Avenue, Toronto", 43.6573, -79.4003, 1},
		{"Paradiso Bakery", "Sourdough, espresso and patio seating.", []string{"Wifi", "Vegetarian"}, "1295 Queen Street West, Toronto", 43.6422, -79.4266, 2},
		{"Kettle Corn Co", "Small batch kettle corn and roasted nuts.", []string{"Family Friendly"}, "902 Danforth Avenue, Toronto", 43.6790, -79.3366, 0},
		{"Night Owl Diner", "Classic diner, open 24 hours.", []string{"Open Late"}, "60 Ossington Avenue, Toronto", 43.6441, -79.4199, 1},
	}

	stores := make([]*entities.Store, 0, len(seeds))
	for _, s := range seeds {
		base := slug.Normalize(s.name)
		matches, err := storeRepo.CountSlugMatches(ctx, base)
		if err != nil {
			log.Printf("Failed to count slugs for %s: %v", s.name, err)
			continue
		}
		store := &entities.Store{
			ID:          uuid.New().String(),
			Name:        s.name,
			Slug:        slug.Next(base, matches),
			Description: s.description,
			Tags:        s.tags,
			Address:     s.address,
			Location:    entities.Location{Latitude: s.lat, Longitude: s.lng},
			AuthorID:    users[s.author].ID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := storeRepo.Create(ctx, store); err != nil {
			log.Printf("Failed to create store %s: %v", s.name, err)
			continue
		}
		stores = append(stores, store)

		if searchRepo != nil {
			if err := searchRepo.Index(ctx, store); err != nil {
				log.Printf("Failed to index store %s: %v", s.name, err)
			}
		}
	}

	// 3. Seed reviews, one per author per store
	texts := []string{"Fantastic spot", "Would come back", "Decent but pricey"}
	for i, store := range stores {
		for j, user := range users {
			if user.ID == store.AuthorID {
				continue
			}
			review := &entities.Review{
				ID:        uuid.New().String(),
				StoreID:   store.ID,
				AuthorID:  user.ID,
				Rating:    (i+j)%5 + 1,
				Text:      texts[(i+j)%len(texts)],
				CreatedAt: time.Now(),
			}
			if err := reviewRepo.Create(ctx, review); err != nil {
				log.Printf("Failed to create review for %s: %v", store.Name, err)
			}
		}
	}

	log.Printf("Seeded %d users, %d stores", len(users), len(stores))
}
