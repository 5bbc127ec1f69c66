package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"luckydraw-api/internal/domain"
	redispkg "luckydraw-api/pkg/redis"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed|publish]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "publish":
		if err := publishCatalog(ctx, conn); err != nil {
			log.Fatalf("Failed to publish catalog: %v", err)
		}
		fmt.Println("✅ Catalog published successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed|publish]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS profiles CASCADE`,
		`DROP TABLE IF EXISTS draws CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// One row per signed-in user; the balance can never go negative
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255),
			display_name VARCHAR(255),
			tokens INTEGER NOT NULL DEFAULT 0 CHECK (tokens >= 0),
			entered_draws TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Shared draw catalog, ordered by position
		`CREATE TABLE IF NOT EXISTS draws (
			id VARCHAR(100) PRIMARY KEY,
			prize VARCHAR(255) NOT NULL,
			token_cost INTEGER NOT NULL CHECK (token_cost > 0),
			position INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_profiles_updated_at ON profiles(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_active ON draws(is_active, position)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	// Insert draw catalog
	query := `
		INSERT INTO draws (id, prize, token_cost, position) VALUES
		('draw-smartphone', 'Smartphone', 10, 1),
		('draw-headphones', 'Wireless Headphones', 5, 2),
		('draw-giftcard-50', '$50 Gift Card', 3, 3),
		('draw-smartwatch', 'Smartwatch', 8, 4),
		('draw-coffee', 'Coffee Voucher', 1, 5)
		ON CONFLICT (id) DO UPDATE SET
			prize = EXCLUDED.prize,
			token_cost = EXCLUDED.token_cost,
			position = EXCLUDED.position,
			is_active = true,
			updated_at = NOW()
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed draws: %w", err)
	}

	fmt.Println("  Seeded 5 draws")

	return nil
}

// publishCatalog broadcasts the active draw list to running API instances
// over the Redis catalog channel. Run it after editing the draws table.
func publishCatalog(ctx context.Context, conn *pgx.Conn) error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return fmt.Errorf("REDIS_URL environment variable is not set")
	}

	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	defer rdb.Close()

	rows, err := conn.Query(ctx, `SELECT id, prize, token_cost FROM draws WHERE is_active = true ORDER BY position ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("failed to load draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		var d domain.Draw
		if err := rows.Scan(&d.ID, &d.Prize, &d.TokenCost); err != nil {
			return fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read draws: %w", err)
	}

	payload, err := json.Marshal(domain.CatalogPayload{List: draws})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog payload: %w", err)
	}

	keys := redispkg.NewKeyBuilder(os.Getenv("ENVIRONMENT"))
	channel := keys.ChannelCatalog()
	if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	fmt.Printf("  Published %d draws to %s\n", len(draws), channel)
	return nil
}
