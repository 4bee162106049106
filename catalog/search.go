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

package catalog

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Filter is the search input. All fields are optional and combined with
// AND; Categories and Countries are comma lists matched any-of.
type Filter struct {
	Categories string `json:"categories,omitempty" validate:"omitempty"`
	Countries  string `json:"countries,omitempty" validate:"omitempty"`
	Year       int    `json:"year,omitempty" validate:"omitempty,gte=0"`
	Type       string `json:"type,omitempty" validate:"omitempty"`
	Status     string `json:"status,omitempty" validate:"omitempty"`
	Keyword    string `json:"keyword,omitempty" validate:"omitempty"`
	Page       int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PerPage    int    `json:"per_page,omitempty" validate:"omitempty,min=1,max=100"`
}

type Pagination struct {
	TotalItems        int64 `json:"totalItems"`
	TotalItemsPerPage int   `json:"totalItemsPerPage"`
	CurrentPage       int   `json:"currentPage"`
	TotalPages        int64 `json:"totalPages"`
}

type SearchResult struct {
	Items      []Movie    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// DetailResult is the per-title view: the movie with hydrated taxonomy
// references and its episodes grouped per server.
type DetailResult struct {
	Movie    Movie          `json:"movie"`
	Episodes []EpisodeGroup `json:"episodes"`
}

func splitSlugs(s string) []string {
	var slugs []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			slugs = append(slugs, part)
		}
	}
	return slugs
}

func (f Filter) page() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

func (f Filter) perPage() int {
	if f.PerPage < 1 {
		return DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		return MaxPerPage
	}
	return f.PerPage
}

func totalPages(totalItems int64, perPage int) int64 {
	return (totalItems + int64(perPage) - 1) / int64(perPage)
}

// filterQuery applies the structured filter fields, keyword excluded.
func (c *Catalog) filterQuery(f Filter) *gorm.DB {
	q := c.db.Model(&Movie{})
	if slugs := splitSlugs(f.Categories); len(slugs) > 0 {
		q = q.Where("movies.id in (select movie_id from movie_categories where category_id in ?)",
			c.categoryIDs(slugs))
	}
	if slugs := splitSlugs(f.Countries); len(slugs) > 0 {
		q = q.Where("movies.id in (select movie_id from movie_countries where country_id in ?)",
			c.countryIDs(slugs))
	}
	if f.Year != 0 {
		q = q.Where("year = ?", f.Year)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// Search returns one page of movies with pagination metadata. With a
// keyword the order is text relevance, best match first; without one it
// is most recently modified first. The two orders are mutually exclusive.
func (c *Catalog) Search(f Filter) (SearchResult, error) {
	if f.Keyword != "" {
		return c.keywordSearch(f)
	}

	page, perPage := f.page(), f.perPage()

	var totalItems int64
	err := c.filterQuery(f).Count(&totalItems).Error
	if err != nil {
		return SearchResult{}, err
	}

	var movies []Movie
	err = c.filterQuery(f).
		Order("modified_time_at desc").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&movies).Error
	if err != nil {
		return SearchResult{}, err
	}
	c.hydrate(movies)

	return SearchResult{
		Items: movies,
		Pagination: Pagination{
			TotalItems:        totalItems,
			TotalItemsPerPage: perPage,
			CurrentPage:       page,
			TotalPages:        totalPages(totalItems, perPage),
		},
	}, nil
}

// keywordSearch ranks candidates with the text index, then narrows them
// with the structured filters and paginates the ranked remainder.
func (c *Catalog) keywordSearch(f Filter) (SearchResult, error) {
	page, perPage := f.page(), f.perPage()

	keys, err := c.search.Search(f.Keyword, c.config.Search.IndexLimit)
	if err != nil {
		return SearchResult{}, err
	}

	var matched []Movie
	if len(keys) > 0 {
		err = c.filterQuery(f).Where("slug in ?", keys).Find(&matched).Error
		if err != nil {
			return SearchResult{}, err
		}
	}

	bySlug := make(map[string]Movie)
	for _, m := range matched {
		bySlug[m.Slug] = m
	}
	ranked := make([]Movie, 0, len(matched))
	for _, key := range keys {
		if m, ok := bySlug[key]; ok {
			ranked = append(ranked, m)
		}
	}

	totalItems := int64(len(ranked))
	start := (page - 1) * perPage
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + perPage
	if end > len(ranked) {
		end = len(ranked)
	}
	items := ranked[start:end]
	c.hydrate(items)

	return SearchResult{
		Items: items,
		Pagination: Pagination{
			TotalItems:        totalItems,
			TotalItemsPerPage: perPage,
			CurrentPage:       page,
			TotalPages:        totalPages(totalItems, perPage),
		},
	}, nil
}

// Detail returns the movie with hydrated references and its episodes
// clustered by server, smallest server group first.
func (c *Catalog) Detail(slug string) (DetailResult, error) {
	movie, err := c.LookupMovie(slug)
	if err != nil {
		return DetailResult{}, err
	}

	movies := []Movie{*movie}
	c.hydrate(movies)

	episodes := c.movieEpisodes(movie)
	byServer := make(map[string][]Episode)
	var order []string
	for _, e := range episodes {
		if _, ok := byServer[e.ServerName]; !ok {
			order = append(order, e.ServerName)
		}
		byServer[e.ServerName] = append(byServer[e.ServerName], e)
	}

	groups := make([]EpisodeGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, EpisodeGroup{
			ServerName: name,
			Count:      len(byServer[name]),
			Episodes:   byServer[name],
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count < groups[j].Count
	})

	return DetailResult{Movie: movies[0], Episodes: groups}, nil
}
