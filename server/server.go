// Copyright (C) 2024 The Phimdb Authors.
//
// This file is part of Phimdb.
//
// Phimdb is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Phimdb is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Phimdb.  If not, see <https://www.gnu.org/licenses/>.

package server

import (
	"net/http"

	"github.com/bmizerany/pat"

	"github.com/phimdb/phimdb/bot"
	"github.com/phimdb/phimdb/catalog"
	"github.com/phimdb/phimdb/config"
	"github.com/phimdb/phimdb/lib/log"
)

type handler struct {
	config  *config.Config
	catalog *catalog.Catalog
	bot     *bot.Bot
}

// Serve opens the catalog and bot once, starts the crawl schedule, and
// blocks on the HTTP listener.
func Serve(cfg *config.Config) error {
	cat := catalog.NewCatalog(cfg)
	err := cat.Open()
	if err != nil {
		return err
	}
	defer cat.Close()

	b := bot.NewBot(cfg, cat)
	err = b.Open()
	if err != nil {
		return err
	}

	h := &handler{
		config:  cfg,
		catalog: cat,
		bot:     b,
	}

	schedule(cfg, cat)

	mux := pat.New()
	mux.Get("/api/search", http.HandlerFunc(h.apiSearch))
	mux.Get("/api/movies", http.HandlerFunc(h.apiMovies))
	mux.Get("/api/movies/:slug", http.HandlerFunc(h.apiMovieDetail))
	mux.Get("/api/lists/series", http.HandlerFunc(h.apiSeries))
	mux.Get("/api/categories", http.HandlerFunc(h.apiCategories))
	mux.Get("/api/countries", http.HandlerFunc(h.apiCountries))
	mux.Get("/api/years", http.HandlerFunc(h.apiYears))
	if b.Enabled() {
		mux.Post(cfg.Telegram.WebhookPath, http.HandlerFunc(h.hookTelegram))
	}

	http.Handle("/", mux)
	log.Printf("listening on %s\n", cfg.Server.Listen)
	return http.ListenAndServe(cfg.Server.Listen, nil)
}
