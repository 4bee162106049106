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

package main

import (
	"github.com/spf13/cobra"

	"github.com/phimdb/phimdb/catalog"
	"github.com/phimdb/phimdb/lib/log"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "phimdb crawl",
	Long:  `Run one catalog crawl and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return crawl()
	},
}

var crawlMaxPage int

func crawl() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if crawlMaxPage > 0 {
		cfg.Crawl.MaxPage = crawlMaxPage
	}
	c := catalog.NewCatalog(cfg)
	err = c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	results := c.Sync()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Printf("crawl done: %d titles, %d failed\n", len(results), failed)
	return nil
}

func init() {
	crawlCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	crawlCmd.Flags().IntVarP(&crawlMaxPage, "max-page", "m", 0, "last listing page to crawl")
	rootCmd.AddCommand(crawlCmd)
}
