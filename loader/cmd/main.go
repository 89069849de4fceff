package main

import (
	"log"

	"rag/loader/service"
	"rag/loader/types"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	service.New(types.ConfigFromEnv()).Run()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
}
