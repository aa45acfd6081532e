package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/slipbox/internal"
)

func main() {
	cmd := &cli.Command{
		Name:    "sb",
		Usage:   "Slipbox: atomic Markdown notes linked by id, with parents, tags and rendered views",
		Version: internal.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Repository root; found from the working directory when empty",
				Sources: cli.EnvVars("SB_ROOT"),
			},
		},
		Commands: commands(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sb: %v\n", err)
		os.Exit(1)
	}
}
