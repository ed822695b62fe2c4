package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/storegate/internal/adminctl"
	"github.com/dmitrijs2005/storegate/internal/server"
	"github.com/dmitrijs2005/storegate/internal/server/config"
)

func main() {

	if _, err := adminctl.Command(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	email := adminctl.Email(os.Args[1:], cfg.AdminEmail)
	password, err := adminctl.Password(int(os.Stdin.Fd()), cfg.AdminPassword, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	deps, err := server.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = adminctl.Bootstrap(ctx, deps.AccountService, email, password, os.Stdout)
	deps.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

}
