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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phimdb/phimdb/config"
	"github.com/phimdb/phimdb/lib/kkphim"
)

// fixtureSource serves a one-page listing plus per-slug detail documents
// the way the catalog API does.
func fixtureSource(t *testing.T, details []kkphim.Detail) *httptest.Server {
	t.Helper()
	bySlug := make(map[string]kkphim.Detail)
	var listings []kkphim.Listing
	for _, d := range details {
		bySlug[d.Movie.Slug] = d
		listings = append(listings, kkphim.Listing{
			Name:     d.Movie.Name,
			Slug:     d.Movie.Slug,
			Modified: d.Movie.Modified,
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/danh-sach/phim-moi-cap-nhat", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": true, "items": []kkphim.Listing{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true, "items": listings})
	})
	mux.HandleFunc("/phim/", func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/phim/")
		d, ok := bySlug[slug]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(d)
	})
	return httptest.NewServer(mux)
}

func newTestCatalog(t *testing.T, baseURL string) *Catalog {
	t.Helper()
	cfg, err := config.TestConfig(t.TempDir())
	if err != nil {
		t.Fatalf("TestConfig %s\n", err)
	}
	cfg.Crawl.BaseURL = baseURL
	cfg.Crawl.MaxPage = 1
	c := NewCatalog(cfg)
	err = c.Open()
	if err != nil {
		t.Fatalf("Open %s\n", err)
	}
	t.Cleanup(c.Close)
	return c
}

func testDetail(n int, categories, countries []kkphim.Taxonomy, servers []kkphim.Server) kkphim.Detail {
	return kkphim.Detail{
		Status: true,
		Movie: kkphim.Movie{
			Name:           fmt.Sprintf("Movie %d", n),
			Slug:           fmt.Sprintf("movie-%d", n),
			OriginName:     fmt.Sprintf("Original %d", n),
			Content:        fmt.Sprintf("Synopsis for movie %d", n),
			Type:           "single",
			Status:         "completed",
			Quality:        "HD",
			Lang:           "Vietsub",
			Year:           2024,
			Modified:       kkphim.Modified{Time: fmt.Sprintf("2024-05-%02dT10:00:00Z", n%28+1)},
			Category:       categories,
			Country:        countries,
		},
		Episodes: servers,
	}
}

// newSourceClient points an open catalog at a replacement fixture source.
func newSourceClient(c *Catalog, baseURL string) *kkphim.KKPhim {
	return kkphim.NewKKPhim(baseURL, c.client)
}

func syncFailures(results []SyncResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}
