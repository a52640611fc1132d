package main

import (
	"log"
	"net/http"
	"os"

	"contactbook/config/database"
	"contactbook/pkg/logger"
	"contactbook/router"
	"contactbook/socket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	logger.Init()
	defer logger.Log.Sync()

	db := database.Connect()
	defer db.Close()

	hub := socket.NewHub()
	go hub.Run()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger.Sugar.Infof("Contact backend listening on %s", addr)
	if err := http.ListenAndServe(addr, router.Setup(db, hub)); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
