package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	mux := http.NewServeMux()
	services.Gateway.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", getEnv("PORT", cfg.Server.Port)),
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
