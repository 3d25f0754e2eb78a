package main

import (
	"context"
	"log"

	"floatchat-be/internal/bootstrap"
	"floatchat-be/internal/config"
	"floatchat-be/internal/server"
	"floatchat-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Vector Database
	vectorDB, err := database.NewGormDBFromDSN(cfg.Database.VectorDSN)
	if err != nil {
		log.Panicf("Unable to connect to vector DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg, vectorDB)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting rebuild consumer...")
		if err := container.Consumer.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
