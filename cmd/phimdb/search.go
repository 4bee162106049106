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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phimdb/phimdb/catalog"
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "phimdb search",
	Long:  `Search the stored catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return search(strings.Join(args, " "))
	},
}

func search(keyword string) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	c := catalog.NewCatalog(cfg)
	err = c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Search(catalog.Filter{Keyword: keyword})
	if err != nil {
		return err
	}
	for _, m := range result.Items {
		fmt.Printf("%s (%d) %s\n", m.Name, m.Year, m.Slug)
	}
	fmt.Printf("%d of %d\n", len(result.Items), result.Pagination.TotalItems)
	return nil
}

func init() {
	searchCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(searchCmd)
}
