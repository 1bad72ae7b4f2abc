package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"biomarket/internal/auth"
	"biomarket/internal/config"
	"biomarket/internal/domain"
)

// token mints a bearer token for local testing against the API.
func main() {
	var (
		account string
		roles   string
	)
	flag.StringVar(&account, "account", "", "Account name carried in the token subject")
	flag.StringVar(&roles, "roles", domain.RoleFarmer, "Comma separated roles (Farmer, Client)")
	flag.Parse()

	if strings.TrimSpace(account) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[token] ", log.LstdFlags|log.LUTC)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	var list []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			list = append(list, r)
		}
	}

	tok, err := auth.NewTokens(cfg.JWTSecret).Issue(domain.Principal{Account: account, Roles: list}, cfg.TokenTTL)
	if err != nil {
		logger.Fatalf("issue token: %v", err)
	}
	fmt.Println(tok)
}
