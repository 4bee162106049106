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
	"sync"
	"testing"

	"github.com/phimdb/phimdb/lib/kkphim"
)

var comedy = kkphim.Taxonomy{Name: "Hài Hước", Slug: "hai-huoc"}
var drama = kkphim.Taxonomy{Name: "Tâm Lý", Slug: "tam-ly"}
var usuk = kkphim.Taxonomy{Name: "Âu Mỹ", Slug: "au-my"}

func serverA(slugs ...string) kkphim.Server {
	s := kkphim.Server{ServerName: "Vietsub #1"}
	for _, slug := range slugs {
		s.ServerData = append(s.ServerData, kkphim.ServerEpisode{
			Name:      slug,
			Slug:      slug,
			LinkEmbed: "https://embed/" + slug,
			LinkM3u8:  "https://m3u8/" + slug,
		})
	}
	return s
}

func TestSyncIdempotent(t *testing.T) {
	detail := testDetail(1,
		[]kkphim.Taxonomy{comedy}, []kkphim.Taxonomy{usuk},
		[]kkphim.Server{serverA("tap-01", "tap-02")})
	src := fixtureSource(t, []kkphim.Detail{detail})
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	for pass := 0; pass < 2; pass++ {
		results := c.SyncPage(1)
		if failed := syncFailures(results); failed != 0 {
			t.Fatalf("pass %d: %d failures\n", pass, failed)
		}
	}

	if n := c.MovieCount(); n != 1 {
		t.Errorf("got %d movies, want 1\n", n)
	}
	var episodes int64
	c.db.Model(&Episode{}).Count(&episodes)
	if episodes != 2 {
		t.Errorf("got %d episodes, want 2\n", episodes)
	}

	m, err := c.LookupMovie("movie-1")
	if err != nil {
		t.Fatalf("LookupMovie %s\n", err)
	}
	if m.Name != "Movie 1" || m.Quality != "HD" {
		t.Errorf("unexpected movie %+v\n", m)
	}
	if linked := c.movieEpisodes(m); len(linked) != 2 {
		t.Errorf("got %d linked episodes, want 2\n", len(linked))
	}
}

func TestSyncUpdatesInPlace(t *testing.T) {
	detail := testDetail(1,
		[]kkphim.Taxonomy{comedy}, []kkphim.Taxonomy{usuk},
		[]kkphim.Server{serverA("tap-01")})
	src := fixtureSource(t, []kkphim.Detail{detail})
	c := newTestCatalog(t, src.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}
	src.Close()

	// second ingestion of the same title with new field values
	detail.Movie.Name = "Movie 1 Remastered"
	detail.Movie.Quality = "FHD"
	detail.Episodes = []kkphim.Server{serverA("tap-01", "tap-02")}
	src2 := fixtureSource(t, []kkphim.Detail{detail})
	defer src2.Close()
	c.kkphim = newSourceClient(c, src2.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}

	if n := c.MovieCount(); n != 1 {
		t.Errorf("got %d movies, want 1\n", n)
	}
	m, _ := c.LookupMovie("movie-1")
	if m.Name != "Movie 1 Remastered" || m.Quality != "FHD" {
		t.Errorf("fields not replaced: %+v\n", m)
	}

	var episodes []Episode
	c.db.Where("movie_id = ?", m.ID).Order("episode_slug").Find(&episodes)
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2\n", len(episodes))
	}
	if episodes[0].EpisodeSlug != "tap-01" || episodes[1].EpisodeSlug != "tap-02" {
		t.Errorf("unexpected episode slugs %+v\n", episodes)
	}
}

func TestTaxonomyDedup(t *testing.T) {
	d1 := testDetail(1, []kkphim.Taxonomy{comedy, drama}, []kkphim.Taxonomy{usuk}, nil)
	d2 := testDetail(2, []kkphim.Taxonomy{comedy}, []kkphim.Taxonomy{usuk}, nil)
	src := fixtureSource(t, []kkphim.Detail{d1, d2})
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}

	var categories []Category
	c.db.Where("slug = ?", "hai-huoc").Find(&categories)
	if len(categories) != 1 {
		t.Fatalf("got %d rows for hai-huoc, want 1\n", len(categories))
	}
	var countries []Country
	c.db.Where("slug = ?", "au-my").Find(&countries)
	if len(countries) != 1 {
		t.Fatalf("got %d rows for au-my, want 1\n", len(countries))
	}

	// both movies reference the same category row
	var links []taxonomyLink
	c.db.Table("movie_categories").
		Where("category_id = ?", categories[0].ID).Find(&links)
	if len(links) != 2 {
		t.Errorf("got %d links for shared category, want 2\n", len(links))
	}
}

func TestTaxonomyNameLastWriteWins(t *testing.T) {
	src := fixtureSource(t, nil)
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	id1, err := c.resolveCategory("Hai Huoc", "hai-huoc")
	if err != nil {
		t.Fatalf("resolveCategory %s\n", err)
	}
	id2, err := c.resolveCategory("Hài Hước", "hai-huoc")
	if err != nil {
		t.Fatalf("resolveCategory %s\n", err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d %d\n", id1, id2)
	}
	var cat Category
	c.db.First(&cat, id1)
	if cat.Name != "Hài Hước" {
		t.Errorf("name not updated: %s\n", cat.Name)
	}
}

func TestResolveReturnsRowID(t *testing.T) {
	src := fixtureSource(t, nil)
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	first, err := c.resolveCategory("Hành Động", "hanh-dong")
	if err != nil {
		t.Fatalf("resolveCategory %s\n", err)
	}
	if _, err = c.resolveCategory("Tâm Lý", "tam-ly"); err != nil {
		t.Fatalf("resolveCategory %s\n", err)
	}
	// the conflict path must yield the existing row's id, not the
	// connection's last insert rowid
	again, err := c.resolveCategory("Hành Động", "hanh-dong")
	if err != nil {
		t.Fatalf("resolveCategory %s\n", err)
	}
	if again != first {
		t.Errorf("got id %d on re-resolve, want %d\n", again, first)
	}
	var cat Category
	c.db.Where("slug = ?", "hanh-dong").First(&cat)
	if cat.ID != again {
		t.Errorf("resolved id %d does not match row id %d\n", again, cat.ID)
	}
}

func TestResolveConcurrent(t *testing.T) {
	src := fixtureSource(t, nil)
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = c.resolveCategory("Hài Hước", "hai-huoc")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %s\n", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got id %d, want %d\n", i, ids[i], ids[0])
		}
	}

	var categories []Category
	c.db.Where("slug = ?", "hai-huoc").Find(&categories)
	if len(categories) != 1 {
		t.Fatalf("got %d rows for hai-huoc, want 1\n", len(categories))
	}
	if categories[0].ID != ids[0] {
		t.Errorf("resolved id %d does not match row id %d\n",
			ids[0], categories[0].ID)
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	good := testDetail(1, []kkphim.Taxonomy{comedy}, nil, nil)
	bad := testDetail(2, []kkphim.Taxonomy{drama}, nil, nil)
	bad.Movie.Modified.Time = "not-a-timestamp"
	src := fixtureSource(t, []kkphim.Detail{good, bad})
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	results := c.SyncPage(1)
	if failed := syncFailures(results); failed != 1 {
		t.Fatalf("got %d failures, want 1\n", failed)
	}

	if _, err := c.LookupMovie("movie-1"); err != nil {
		t.Errorf("good sibling not committed: %s\n", err)
	}
	if _, err := c.LookupMovie("movie-2"); err == nil {
		t.Errorf("bad title should not be stored\n")
	}
}

func TestEpisodeRelink(t *testing.T) {
	detail := testDetail(1, nil, nil, []kkphim.Server{
		serverA("tap-01", "tap-02", "tap-03"),
	})
	src := fixtureSource(t, []kkphim.Detail{detail})
	c := newTestCatalog(t, src.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}
	src.Close()

	// the source's list shrinks on the next run
	detail.Episodes = []kkphim.Server{serverA("tap-01")}
	src2 := fixtureSource(t, []kkphim.Detail{detail})
	defer src2.Close()
	c.kkphim = newSourceClient(c, src2.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}

	m, _ := c.LookupMovie("movie-1")
	linked := c.movieEpisodes(m)
	if len(linked) != 1 || linked[0].EpisodeSlug != "tap-01" {
		t.Errorf("relinked list wrong: %+v\n", linked)
	}

	// without pruning the orphan rows stay behind
	var all int64
	c.db.Model(&Episode{}).Where("movie_id = ?", m.ID).Count(&all)
	if all != 3 {
		t.Errorf("got %d episode rows, want 3\n", all)
	}
}

func TestEpisodePrune(t *testing.T) {
	detail := testDetail(1, nil, nil, []kkphim.Server{
		serverA("tap-01", "tap-02", "tap-03"),
	})
	src := fixtureSource(t, []kkphim.Detail{detail})
	c := newTestCatalog(t, src.URL)
	c.config.Crawl.PruneEpisodes = true

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}
	src.Close()

	detail.Episodes = []kkphim.Server{serverA("tap-01")}
	src2 := fixtureSource(t, []kkphim.Detail{detail})
	defer src2.Close()
	c.kkphim = newSourceClient(c, src2.URL)

	if failed := syncFailures(c.SyncPage(1)); failed != 0 {
		t.Fatalf("%d failures\n", failed)
	}

	m, _ := c.LookupMovie("movie-1")
	var all int64
	c.db.Model(&Episode{}).Where("movie_id = ?", m.ID).Count(&all)
	if all != 1 {
		t.Errorf("got %d episode rows after prune, want 1\n", all)
	}
}

func TestFetchDetailDropsFailures(t *testing.T) {
	// one listed slug has no detail document behind it
	good := testDetail(1, nil, nil, nil)
	src := fixtureSource(t, []kkphim.Detail{good})
	defer src.Close()
	c := newTestCatalog(t, src.URL)

	listings := []kkphim.Listing{
		{Slug: "movie-1"},
		{Slug: "missing-movie"},
	}
	details := c.fetchDetails(listings)
	if len(details) != 1 {
		t.Fatalf("got %d details, want 1\n", len(details))
	}
	if details[0].Movie.Slug != "movie-1" {
		t.Errorf("unexpected detail %s\n", details[0].Movie.Slug)
	}
}

func TestEpisodeNumber(t *testing.T) {
	if n := episodeNumber("tap-01"); n != 1 {
		t.Errorf("got %d, want 1\n", n)
	}
	if n := episodeNumber("tap-12"); n != 12 {
		t.Errorf("got %d, want 12\n", n)
	}
	if n := episodeNumber("full"); n != 0 {
		t.Errorf("got %d, want 0\n", n)
	}
}
