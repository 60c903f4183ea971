package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/services"
	"github.com/Skvorcmen/RLT-test/internal/utils"
)

// Mints a service token for the write endpoints.
func main() {
	subject := flag.String("subject", "ingester", "token subject (name of the calling service)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	log, err := logger.New("production")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	authService := services.NewAuthService(log, jwtSecretKey, *ttl)

	token, err := authService.IssueToken(*subject)
	if err != nil {
		log.Fatal("Token issue failed", "error", err)
	}
	fmt.Println(token)
}
