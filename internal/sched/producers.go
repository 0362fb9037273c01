package sched

import (
	"context"
	"strings"

	"flapd/internal/fetch"
	"flapd/internal/storage"
	"flapd/internal/summary"
	"flapd/pkg/logx"
)

// Chain concatenates producers in order.
func Chain(ps ...Producer) Producer {
	return func(ctx context.Context) []string {
		var out []string
		for _, p := range ps {
			if p != nil {
				out = append(out, p(ctx)...)
			}
		}
		return out
	}
}

// QuoteConfig configures the stock-quote producer.
type QuoteConfig struct {
	// URLTemplate with {symbol} and {token} placeholders.
	URLTemplate string
	Token       string
	Symbols     []string
	Modules     int
}

// QuoteURL expands the endpoint template for one symbol.
func (c QuoteConfig) QuoteURL(symbol string) string {
	u := strings.ReplaceAll(c.URLTemplate, "{symbol}", symbol)
	return strings.ReplaceAll(u, "{token}", c.Token)
}

// Quotes builds a producer that, per symbol, enqueues the lowercased
// symbol followed by the fetched price. A failed fetch or parse leaves
// just the symbol, mirroring a quote board with a blank price.
func Quotes(cfg QuoteConfig, fetcher fetch.Adapter, store storage.Store, log logx.Logger) Producer {
	return func(ctx context.Context) []string {
		var out []string
		for _, sym := range cfg.Symbols {
			out = append(out, strings.ToLower(sym))

			res := fetcher.Get(ctx, cfg.QuoteURL(sym))
			if res.Kind() != fetch.KindBody {
				log.Warn("quote fetch failed", logx.String("symbol", sym), logx.String("result", res.String()))
				continue
			}
			price, err := summary.SummarizeQuote(res.Body, cfg.Modules)
			if err != nil {
				log.Warn("quote parse failed", logx.String("symbol", sym), logx.Err(err))
				continue
			}
			out = append(out, price)

			if store != nil {
				if err := store.AppendQuote(ctx, storage.QuoteEntry{Symbol: sym, Price: price}); err != nil && err != storage.ErrDisabled {
					log.Debug("quote history append failed", logx.Err(err))
				}
			}
		}
		return out
	}
}
