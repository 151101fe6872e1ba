package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NewsSource is a named headline feed.
type NewsSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Universe lists the symbols and feeds the dashboard tracks.
type Universe struct {
	Indices     []string     `yaml:"indices"`
	Volatility  []string     `yaml:"volatility"`
	RatesMacro  []string     `yaml:"rates_macro"`
	IVStocks    []string     `yaml:"iv_stocks"`
	Movers      []string     `yaml:"movers"`
	Earnings    []string     `yaml:"earnings"`
	NewsSources []NewsSource `yaml:"news_sources"`
}

// DefaultUniverse returns the built-in symbol lists and feeds.
func DefaultUniverse() Universe {
	return Universe{
		Indices:    []string{"SPY", "QQQ", "DIA", "IWM"},
		Volatility: []string{"^VIX", "^VIX9D", "^VVIX"},
		RatesMacro: []string{"^TNX", "^IRX", "DX-Y.NYB", "GLD", "USO"},
		IVStocks:   []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "JPM", "XOM", "SPY"},
		Movers: []string{
			"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "JPM",
			"V", "JNJ", "WMT", "PG", "UNH", "MA", "DIS", "BA", "CSCO",
			"INTC", "AMD", "NFLX", "GOOG", "UBER", "IBM", "PAYX", "GE",
		},
		Earnings: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META"},
		NewsSources: []NewsSource{
			{Name: "Bloomberg", URL: "https://feeds.bloomberg.com/markets/news.rss"},
			{Name: "Reuters", URL: "http://feeds.reuters.com/reuters/businessNews"},
			{Name: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
			{Name: "WSJ", URL: "https://feeds.wsj.com/xml/rss/3_7085.xml"},
		},
	}
}

// LoadUniverse reads a YAML universe file. Lists present in the file replace
// the defaults; omitted lists keep them.
func LoadUniverse(path string) (Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Universe{}, fmt.Errorf("read universe file: %w", err)
	}

	u := DefaultUniverse()
	err = yaml.Unmarshal(data, &u)
	if err != nil {
		return Universe{}, fmt.Errorf("parse universe file: %w", err)
	}

	return u, nil
}

// Overview returns the symbols shown in the market overview panel, in
// display order.
func (u Universe) Overview() []string {
	out := make([]string, 0, len(u.Indices)+len(u.Volatility)+len(u.RatesMacro))
	out = append(out, u.Indices...)
	out = append(out, u.Volatility...)
	out = append(out, u.RatesMacro...)
	return out
}

// Validate checks that feeds are well formed.
func (u Universe) Validate() error {
	seen := make(map[string]bool, len(u.NewsSources))
	for _, s := range u.NewsSources {
		if s.Name == "" || s.URL == "" {
			return errors.New("news sources need a name and a url")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate news source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
