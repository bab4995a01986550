package main

import (
	"fmt"
	"io"

	"productview/catalog/internal/config"
	"productview/catalog/internal/criteria"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	modeWindow = "window"
	modePages  = "pages"
)

type options struct {
	cfg        *config.Config
	mode       string
	steps      int
	importOnly bool
	raw        criteria.Raw
}

// queryFlags maps flag names to query keys.
var queryFlags = map[string]string{
	"keyword":   criteria.KeyKeyword,
	"category":  criteria.KeyCategory,
	"min-price": criteria.KeyMinPrice,
	"max-price": criteria.KeyMaxPrice,
	"in-stock":  criteria.KeyInStock,
	"sort":      criteria.KeySortBy,
	"page":      criteria.KeyPageNow,
	"page-size": criteria.KeyProductNum,
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("browse", pflag.ContinueOnError)
	fs.SetOutput(out)

	configPath := fs.String("config", "", "config file (default ./config.yaml when present)")
	fs.String("upstream", "", "base URL of a running catalog API; browses the local catalog when empty")
	fs.String("catalog", "", "local catalog file (.json, .yaml, .html)")
	fs.String("log-level", "", "log level")
	mode := fs.StringP("mode", "m", modeWindow, "browsing mode: window or pages")
	steps := fs.IntP("steps", "n", 1, "window expansions or pages to walk after the first")
	importOnly := fs.Bool("import", false, "copy the local catalog file into postgres and exit")

	fs.StringP("keyword", "k", "", "case-insensitive name substring")
	fs.StringP("category", "c", "", "exact category")
	fs.String("min-price", "", "inclusive lower price bound")
	fs.String("max-price", "", "inclusive upper price bound")
	fs.String("in-stock", "", "only products in stock (1/0)")
	fs.String("sort", "", "price order: asc or desc")
	fs.String("page", "", "first page to show in pages mode")
	fs.String("page-size", "", "products per page")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	for key, flag := range map[string]string{
		"upstream.base_url": "upstream",
		"catalog.path":      "catalog",
		"log.level":         "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	upstream, _ := fs.GetString("upstream")
	if upstream != "" {
		v.Set("catalog.source", config.SourceHTTP)
	} else {
		v.Set("catalog.source", config.SourceFile)
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, err
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}

	raw := criteria.Raw{}
	for flag, key := range queryFlags {
		if fs.Changed(flag) {
			value, _ := fs.GetString(flag)
			raw[key] = value
		}
	}

	return &options{
		cfg:        cfg,
		mode:       *mode,
		steps:      max(*steps, 0),
		importOnly: *importOnly,
		raw:        raw,
	}, nil
}
