package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"rag/app/server"
	"rag/types"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	s := server.NewServer(types.ConfigFromEnv())

	go s.Run()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
}
