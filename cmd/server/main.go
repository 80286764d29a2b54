// Command server runs the tipjar API: gateway orders, payment verification
// and the supporter ledger.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/tipjar/internal/server"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
)

func main() {
	log.SetPrefix("tipjar: ")

	ctx := context.Background()
	cfg := config.LoadConfig()

	if cfg.DatabaseDSN == server.MemoryDSN {
		log.Printf("using in-memory store; data is lost on exit")
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
