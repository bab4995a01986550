package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"productview/catalog/internal/catalog"
	"productview/catalog/internal/client"
	"productview/catalog/internal/config"
	"productview/catalog/internal/domain"
	"productview/catalog/internal/repository"
	"productview/catalog/internal/service"
	"productview/catalog/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// browser holds the page and window sources for one run.
type browser struct {
	opts    *options
	windows state.WindowSource
	pages   state.PageSource
	loader  catalog.Loader
	remote  client.CatalogClient
}

func newBrowser(opts *options) (*browser, error) {
	cfg := opts.cfg
	b := &browser{opts: opts}

	if cfg.Catalog.Source == config.SourceHTTP {
		b.remote = client.NewCatalogClient(cfg.Upstream)
		b.pages = b.remote
		b.windows = client.NewPagedWindowSource(b.remote, cfg.Window.PageSize)
		log.Debugf("Browsing remote catalog at %s", cfg.Upstream.BaseURL)
		return b, nil
	}

	html := client.HTMLDecoder("")
	b.loader = catalog.NewFileLoader(cfg.Catalog.Path,
		catalog.WithDecoder(".html", html),
		catalog.WithDecoder(".htm", html),
	)

	svc := service.NewService(catalog.New(b.loader), nil, cfg.Query.Defaults())
	b.pages = svc
	b.windows = svc
	log.Debugf("Browsing local catalog %s", cfg.Catalog.Path)
	return b, nil
}

func (b *browser) close() {
	if b.remote != nil {
		_ = b.remote.Close()
	}
}

// browseWindow grows the infinite-scroll window step by step.
func (b *browser) browseWindow(ctx context.Context, out io.Writer) error {
	cfg := b.opts.cfg
	ctrl := state.NewController(b.windows, cfg.Window.Defaults(), cfg.Window.Proximity)

	if err := ctrl.Apply(ctx, b.opts.raw); err != nil {
		return err
	}

	shown := 0
	for step := 0; ; step++ {
		v := ctrl.View()
		printProducts(out, v.Items[shown:], shown)
		shown = len(v.Items)
		fmt.Fprintf(out, "-- showing %d of %d (%d%%) phase=%s\n", len(v.Items), v.Total, v.Progress(), v.Phase)

		if step >= b.opts.steps {
			return nil
		}
		more, err := ctrl.RequestMore(ctx)
		if err != nil {
			return err
		}
		if !more {
			fmt.Fprintln(out, "-- no more products")
			return nil
		}
	}
}

// browsePages walks discrete pages forward from the requested one.
func (b *browser) browsePages(ctx context.Context, out io.Writer) error {
	nav := state.NewNavigator(b.pages, b.opts.cfg.Query.Defaults())

	if err := nav.Apply(ctx, b.opts.raw); err != nil {
		return err
	}

	for step := 0; ; step++ {
		v := nav.View()
		offset := (v.Page.PageNow - 1) * v.Spec.Size
		printProducts(out, v.Page.Items, offset)
		fmt.Fprintf(out, "-- page %d of %d, %d products\n", v.Page.PageNow, v.Page.PageCount, v.Page.ProductCount)

		if step >= b.opts.steps || v.Page.PageNow >= v.Page.PageCount {
			return nil
		}
		if err := nav.Next(ctx); err != nil {
			return err
		}
	}
}

// importCatalog copies the local catalog file into postgres.
func (b *browser) importCatalog(ctx context.Context, out io.Writer) error {
	if b.loader == nil {
		return fmt.Errorf("import needs a local catalog file")
	}

	products, err := b.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := catalog.Validate(products); err != nil {
		return err
	}

	db, err := pgxpool.New(ctx, b.opts.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer db.Close()

	repo := repository.NewProductRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := repo.SaveProducts(ctx, products); err != nil {
		return err
	}

	fmt.Fprintf(out, "imported %d products\n", len(products))
	return nil
}

func printProducts(out io.Writer, products []domain.Product, offset int) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%d\t#%d\t%s\t%s\t%.2f\t%s\n", offset+i+1, p.ID, p.Name, p.Category, p.Price, stock)
	}
	_ = w.Flush()
}
