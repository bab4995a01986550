// Command browse walks the catalog from the terminal, either growing an
// infinite-scroll window or paging through discrete pages, against a local
// catalog file or a running catalog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("❌ %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	b, err := newBrowser(opts)
	if err != nil {
		return err
	}
	defer b.close()

	switch {
	case opts.importOnly:
		return b.importCatalog(ctx, out)
	case opts.mode == modeWindow:
		return b.browseWindow(ctx, out)
	case opts.mode == modePages:
		return b.browsePages(ctx, out)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}
