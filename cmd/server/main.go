package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"astral-server/internal/ai"
	"astral-server/internal/auth"
	"astral-server/internal/config"
	"astral-server/internal/hub"
	"astral-server/internal/secret"
	"astral-server/internal/server"
	"astral-server/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatal(err)
	}

	cipher, err := secret.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatal(err)
	}

	generator, err := ai.NewModelGenerator(ai.GeneratorConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
	})
	if err != nil {
		log.Fatal(err)
	}

	tokenCfg := auth.TokenConfig{
		Secret: cfg.SecretKey,
		Expiry: cfg.TokenExpiry,
		Issuer: "astral-server",
	}

	router := server.NewRouter(server.Deps{
		Store:          st,
		TokenConfig:    tokenCfg,
		Cipher:         cipher,
		Assistant:      ai.NewAssistant(generator),
		Hub:            hub.New(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	log.Fatal(server.Run(cfg, router))
}
