package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/config"
	"finitefield.org/catalog-web/internal/format"
	"finitefield.org/catalog-web/internal/loader"
	"finitefield.org/catalog-web/internal/observability"
)

type listFlags struct {
	sort    string
	colors  []string
	prices  []string
	size    string
	visible int
	narrow  bool
	lang    string
	fixture string
}

func newListCmd(envFile *string) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch the catalog once and print the filtered, sorted window",
		Long: `Fetch the catalog once and print the same window the page would show.

Example:
  catalog list --color Preto --price 50-100 --sort lowest-price --visible 18`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.WithEnvFile(*envFile))
			if err != nil {
				return err
			}
			if f.fixture != "" {
				cfg.Backend.ServerURL = ""
				cfg.Backend.FixturePath = f.fixture
			}
			logger, err := observability.NewLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			store := catalog.NewStore()
			if err := loader.New(store, loaderOptions(cfg, logger)).Load(cmd.Context()); err != nil {
				logger.Debug("list continues with an empty catalog", zap.Error(err))
			}
			vp := catalog.ViewportWide
			if f.narrow {
				vp = catalog.ViewportNarrow
			}
			res := catalog.Run(store.Snapshot(), catalog.ParseQuery(f.values()), vp)
			lang := f.lang
			if lang == "" {
				lang = cfg.Server.DefaultLang
			}
			printResult(cmd.OutOrStdout(), res, cfg.Catalog.Currency, lang)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.sort, "sort", "", "recent | lowest-price | highest-price")
	cmd.Flags().StringSliceVar(&f.colors, "color", nil, "color filter (repeatable)")
	cmd.Flags().StringSliceVar(&f.prices, "price", nil, "price range such as 50-100 or 500+ (repeatable)")
	cmd.Flags().StringVar(&f.size, "size", "", "size filter")
	cmd.Flags().IntVar(&f.visible, "visible", 0, "visible count (default depends on --narrow)")
	cmd.Flags().BoolVar(&f.narrow, "narrow", false, "use the narrow-viewport defaults")
	cmd.Flags().StringVar(&f.lang, "lang", "", "formatting language (default $CATALOG_DEFAULT_LANG)")
	cmd.Flags().StringVar(&f.fixture, "fixture", "", "read products from this JSON file instead of the server")
	return cmd
}

// values maps the flags onto the same URL keys the page uses.
func (f listFlags) values() url.Values {
	v := url.Values{}
	if f.sort != "" {
		v.Set("sort", f.sort)
	}
	v["color"] = f.colors
	v["price"] = f.prices
	if f.size != "" {
		v.Set("size", f.size)
	}
	if f.visible > 0 {
		v.Set("visible", strconv.Itoa(f.visible))
	}
	return v
}

// listColumns are display widths; wide glyphs count double.
var listColumns = []int{10, 40, 14, 10, 14}

func printResult(w io.Writer, res catalog.Result, currency, lang string) {
	printRow(w, "ID", "NAME", "PRICE", "COLOR", "SIZES", "DATE")
	for _, p := range res.Items {
		printRow(w, p.ID, p.Name, format.Price(p.Price, currency, lang), p.Color, strings.Join(p.Sizes, ","), format.Date(p.Date, lang))
	}
	fmt.Fprintf(w, "\nshowing %d of %d", len(res.Items), res.Total)
	if res.HasMore {
		fmt.Fprintf(w, " (--visible %d for more)", res.NextVisible)
	}
	fmt.Fprintln(w)
}

// printRow pads each cell to its column by display width, truncating overflow.
func printRow(w io.Writer, cells ...string) {
	var b strings.Builder
	for i, c := range cells {
		if i < len(listColumns) {
			width := listColumns[i]
			c = runewidth.FillRight(runewidth.Truncate(c, width, "..."), width) + " "
		}
		b.WriteString(c)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}
