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

// Package catalog ingests movie and episode metadata from the kkphim
// catalog API, reconciles it into the store, and answers search and
// detail queries for the API and bot layers.
package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/phimdb/phimdb/config"
	"github.com/phimdb/phimdb/lib/client"
	"github.com/phimdb/phimdb/lib/kkphim"
	"github.com/phimdb/phimdb/lib/search"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
)

type Catalog struct {
	config *config.Config
	db     *gorm.DB
	client *client.Client
	kkphim *kkphim.KKPhim
	search *search.Search
}

func NewCatalog(cfg *config.Config) *Catalog {
	c := client.NewClient(client.Config{
		UseCache:  cfg.Client.UseCache,
		CacheDir:  cfg.Client.CacheDir,
		MaxAge:    cfg.Client.MaxAge,
		Timeout:   cfg.Client.Timeout,
		UserAgent: cfg.Client.UserAgent,
	})
	return &Catalog{
		config: cfg,
		client: c,
		kkphim: kkphim.NewKKPhim(cfg.Crawl.BaseURL, c),
	}
}

// Open establishes the store connection and the text index once; the
// handles are reused for the life of the process.
func (c *Catalog) Open() (err error) {
	err = c.openDB()
	if err == nil {
		c.search = search.NewSearch(c.config.Search.BleveDir)
		err = c.search.Open("catalog")
	}
	return
}

func (c *Catalog) Close() {
	c.closeDB()
	if c.search != nil {
		c.search.Close()
	}
}
