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
	"regexp"
	"strconv"
	"sync"

	"github.com/phimdb/phimdb/lib/date"
	"github.com/phimdb/phimdb/lib/kkphim"
	"github.com/phimdb/phimdb/lib/log"
	"github.com/phimdb/phimdb/lib/search"
)

const (
	FieldName     = "name"
	FieldOriginal = "original"
	FieldSynopsis = "synopsis"
)

// SyncResult is the per-title outcome of one ingestion pass. Failures are
// recorded, never propagated to siblings; the next scheduled run picks up
// whatever failed this time.
type SyncResult struct {
	Slug string
	Err  error
}

// Sync crawls listing pages 1 through the configured max. The source gives
// no total page signal, so the operator decides how deep a run goes. Pages
// run sequentially; titles within a page run concurrently. A run always
// completes, per-title failures are visible only in the returned results
// and the log.
func (c *Catalog) Sync() []SyncResult {
	var results []SyncResult
	for page := 1; page <= c.config.Crawl.MaxPage; page++ {
		log.Printf("sync page %d\n", page)
		results = append(results, c.SyncPage(page)...)
	}
	return results
}

// SyncPage ingests one listing page of titles.
func (c *Catalog) SyncPage(page int) []SyncResult {
	listings, err := c.kkphim.ListUpdated(page)
	if err != nil {
		log.Printf("sync page %d: %s\n", page, err)
		return []SyncResult{{Err: err}}
	}

	details := c.fetchDetails(listings)

	// titles have distinct slugs so their writes never contend; shared
	// taxonomy slugs are handled by the atomic resolve upserts
	results := make([]SyncResult, len(details))
	var wg sync.WaitGroup
	for i := range details {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slug := details[i].Movie.Slug
			err := c.storeMovie(details[i])
			if err != nil {
				log.Printf("store %s: %s\n", slug, err)
			}
			results[i] = SyncResult{Slug: slug, Err: err}
		}(i)
	}
	wg.Wait()
	return results
}

// fetchDetails fans out one detail request per listed title. Failed items
// are dropped from the result set; the scheduled re-run is the retry.
func (c *Catalog) fetchDetails(listings []kkphim.Listing) []*kkphim.Detail {
	details := make([]*kkphim.Detail, len(listings))
	var wg sync.WaitGroup
	for i := range listings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detail, err := c.kkphim.MovieDetail(listings[i].Slug)
			if err != nil {
				log.Printf("detail %s: %s\n", listings[i].Slug, err)
				return
			}
			details[i] = detail
		}(i)
	}
	wg.Wait()

	fetched := make([]*kkphim.Detail, 0, len(details))
	for _, d := range details {
		if d != nil {
			fetched = append(fetched, d)
		}
	}
	return fetched
}

// storeMovie reconciles one detail document: taxonomies first, then the
// movie row, then its episodes and the episode relink.
func (c *Catalog) storeMovie(detail *kkphim.Detail) error {
	doc := detail.Movie

	// a bad timestamp fails this title only; freshness ordering depends
	// on the parsed value so a zero time is worse than a skip
	modified, err := date.ParseModified(doc.Modified.Time)
	if err != nil {
		return err
	}

	categories, err := c.resolveTaxonomies(doc)
	if err != nil {
		return err
	}
	countries, err := c.resolveCountries(doc)
	if err != nil {
		return err
	}

	m := Movie{
		Name:           doc.Name,
		OriginalName:   doc.OriginName,
		Slug:           doc.Slug,
		Synopsis:       doc.Content,
		Type:           doc.Type,
		Status:         doc.Status,
		PosterURL:      doc.PosterURL,
		ThumbURL:       doc.ThumbURL,
		Runtime:        doc.Time,
		EpisodeCurrent: doc.EpisodeCurrent,
		EpisodeTotal:   doc.EpisodeTotal,
		Quality:        doc.Quality,
		Language:       doc.Lang,
		Year:           doc.Year,
		ModifiedTimeAt: modified,
	}
	err = c.upsertMovie(&m)
	if err != nil {
		// resolved taxonomy rows are already durable and shared;
		// nothing to unwind for this title
		return err
	}

	err = c.replaceCategories(&m, categories)
	if err != nil {
		return err
	}
	err = c.replaceCountries(&m, countries)
	if err != nil {
		return err
	}

	episodes := c.reconcileEpisodes(&m, detail.Episodes)
	err = c.replaceEpisodes(&m, episodes)
	if err != nil {
		return err
	}
	if c.config.Crawl.PruneEpisodes {
		err = c.pruneEpisodes(&m, episodes)
		if err != nil {
			return err
		}
	}

	fields := make(search.FieldMap)
	search.AddField(fields, FieldName, m.Name)
	search.AddField(fields, FieldOriginal, m.OriginalName)
	search.AddField(fields, FieldSynopsis, m.Synopsis)
	c.search.Index(search.IndexMap{m.Slug: fields})

	return nil
}

func (c *Catalog) resolveTaxonomies(doc kkphim.Movie) ([]Category, error) {
	var categories []Category
	for _, t := range doc.Category {
		id, err := c.resolveCategory(t.Name, t.Slug)
		if err != nil {
			return nil, err
		}
		categories = append(categories, Category{
			Model: modelWithID(id), Name: t.Name, Slug: t.Slug})
	}
	return categories, nil
}

func (c *Catalog) resolveCountries(doc kkphim.Movie) ([]Country, error) {
	var countries []Country
	for _, t := range doc.Country {
		id, err := c.resolveCountry(t.Name, t.Slug)
		if err != nil {
			return nil, err
		}
		countries = append(countries, Country{
			Model: modelWithID(id), Name: t.Name, Slug: t.Slug})
	}
	return countries, nil
}

// reconcileEpisodes upserts every server/episode entry keyed by
// (movie, server, episode slug) and returns the rows this pass produced.
// One bad episode does not block its siblings; the relink uses whatever
// succeeded and the next run corrects the rest.
func (c *Catalog) reconcileEpisodes(m *Movie, servers []kkphim.Server) []Episode {
	var episodes []Episode
	for _, server := range servers {
		for _, data := range server.ServerData {
			e := Episode{
				Name:             data.Name,
				EpisodeSlug:      data.Slug,
				EpisodeNumber:    episodeNumber(data.Slug),
				EpisodeLinkEmbed: data.LinkEmbed,
				EpisodeLinkM3u8:  data.LinkM3u8,
				ServerName:       server.ServerName,
				MovieID:          m.ID,
			}
			err := c.upsertEpisode(&e)
			if err != nil {
				log.Printf("episode %s %s/%s: %s\n",
					m.Slug, server.ServerName, data.Slug, err)
				continue
			}
			episodes = append(episodes, e)
		}
	}
	return episodes
}

var episodeNumberRegexp = regexp.MustCompile(`(\d+)`)

// episodeNumber extracts the numeric part of an episode slug like
// "tap-01"; zero for full/trailer style entries.
func episodeNumber(slug string) int {
	matches := episodeNumberRegexp.FindStringSubmatch(slug)
	if matches == nil {
		return 0
	}
	n, _ := strconv.Atoi(matches[1])
	return n
}
