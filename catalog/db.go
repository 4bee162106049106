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
	"errors"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func (c *Catalog) openDB() (err error) {
	var glog logger.Interface
	if c.config.Catalog.DB.LogMode == false {
		glog = logger.Discard
	} else {
		glog = logger.Default
	}
	cfg := &gorm.Config{
		Logger: glog,
	}

	switch c.config.Catalog.DB.Driver {
	case "sqlite3":
		c.db, err = gorm.Open(sqlite.Open(c.config.Catalog.DB.Source), cfg)
	case "mysql":
		c.db, err = gorm.Open(mysql.Open(c.config.Catalog.DB.Source), cfg)
	case "postgres":
		c.db, err = gorm.Open(postgres.Open(c.config.Catalog.DB.Source), cfg)
	default:
		err = errors.New("driver not supported")
	}

	if err != nil {
		return
	}

	c.db.AutoMigrate(&Category{}, &Country{}, &Movie{}, &Episode{})
	return
}

func (c *Catalog) closeDB() {
	if c.db == nil {
		return
	}
	conn, err := c.db.DB()
	if err != nil {
		return
	}
	conn.Close()
}

// resolveCategory is an atomic upsert-by-slug: concurrent titles sharing a
// genre may both observe it absent, so insert-or-update happens as a single
// statement at the storage layer. Name is last-write-wins. The id assigned
// on the conflict path cannot be trusted, sqlite reports the connection's
// last real insert rowid there, so the row is always re-read by slug.
func (c *Catalog) resolveCategory(name, slug string) (uint, error) {
	cat := Category{Name: name, Slug: slug}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"name": name}),
	}).Create(&cat).Error
	if err != nil {
		return 0, err
	}
	err = c.db.Where("slug = ?", slug).First(&cat).Error
	return cat.ID, err
}

func (c *Catalog) resolveCountry(name, slug string) (uint, error) {
	ctry := Country{Name: name, Slug: slug}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"name": name}),
	}).Create(&ctry).Error
	if err != nil {
		return 0, err
	}
	err = c.db.Where("slug = ?", slug).First(&ctry).Error
	return ctry.ID, err
}

// upsertMovie replaces every scalar field of the row keyed by slug, or
// inserts it. The source supplies the full record each time so this is a
// full replace, not a merge. Reference lists are replaced separately.
func (c *Catalog) upsertMovie(m *Movie) error {
	err := c.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "original_name", "synopsis", "type", "status",
			"poster_url", "thumb_url", "runtime", "episode_current",
			"episode_total", "quality", "language", "year",
			"modified_time_at", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	// re-read the id by slug; the create's id is stale on the update path
	var existing Movie
	err = c.db.Where("slug = ?", m.Slug).First(&existing).Error
	if err != nil {
		return err
	}
	m.ID = existing.ID
	return nil
}

func (c *Catalog) replaceCategories(m *Movie, categories []Category) error {
	return c.db.Model(m).Association("Categories").Replace(categories)
}

func (c *Catalog) replaceCountries(m *Movie, countries []Country) error {
	return c.db.Model(m).Association("Countries").Replace(countries)
}

// replaceEpisodes relinks the movie's episode list to exactly the set
// produced by the current ingestion pass.
func (c *Catalog) replaceEpisodes(m *Movie, episodes []Episode) error {
	return c.db.Model(m).Association("Episodes").Replace(episodes)
}

// upsertEpisode replaces the row keyed by (movie, server, episode slug)
// in place, or inserts it.
func (c *Catalog) upsertEpisode(e *Episode) error {
	err := c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "movie_id"}, {Name: "server_name"}, {Name: "episode_slug"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "season", "episode_number",
			"episode_link_embed", "episode_link_m3u8", "updated_at",
		}),
	}).Create(e).Error
	if err != nil {
		return err
	}
	var existing Episode
	err = c.db.Where("movie_id = ? and server_name = ? and episode_slug = ?",
		e.MovieID, e.ServerName, e.EpisodeSlug).First(&existing).Error
	if err != nil {
		return err
	}
	e.ID = existing.ID
	return nil
}

// pruneEpisodes removes rows keyed to the movie that the current pass no
// longer produced; without it orphaned episodes accumulate when a title's
// list shrinks between runs.
func (c *Catalog) pruneEpisodes(m *Movie, keep []Episode) error {
	ids := make([]uint, 0, len(keep))
	for _, e := range keep {
		ids = append(ids, e.ID)
	}
	q := c.db.Where("movie_id = ?", m.ID)
	if len(ids) > 0 {
		q = q.Where("id not in ?", ids)
	}
	return q.Delete(&Episode{}).Error
}

func (c *Catalog) LookupMovie(slug string) (*Movie, error) {
	var movie Movie
	err := c.db.Where("slug = ?", slug).First(&movie).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMovieNotFound
	}
	return &movie, err
}

func (c *Catalog) moviesFor(slugs []string) []Movie {
	var movies []Movie
	c.db.Where("slug in ?", slugs).Find(&movies)
	return movies
}

func (c *Catalog) MovieCount() int64 {
	var count int64
	c.db.Model(&Movie{}).Count(&count)
	return count
}

// movieEpisodes returns the episodes in the movie's link list, which is
// the set from the last successful ingestion pass, not every row keyed
// to the movie.
func (c *Catalog) movieEpisodes(m *Movie) []Episode {
	var episodes []Episode
	c.db.Where("episodes.id in (select episode_id from movie_episodes where movie_id = ?)",
		m.ID).Find(&episodes)
	return episodes
}

func (c *Catalog) Categories() []Category {
	var categories []Category
	c.db.Order("name").Find(&categories)
	return categories
}

func (c *Catalog) Countries() []Country {
	var countries []Country
	c.db.Order("name").Find(&countries)
	return countries
}

func (c *Catalog) categoryIDs(slugs []string) []uint {
	var ids []uint
	c.db.Model(&Category{}).Where("slug in ?", slugs).Pluck("id", &ids)
	return ids
}

func (c *Catalog) countryIDs(slugs []string) []uint {
	var ids []uint
	c.db.Model(&Country{}).Where("slug in ?", slugs).Pluck("id", &ids)
	return ids
}

// Years returns the non-zero year histogram, newest first.
func (c *Catalog) Years() []YearCount {
	var years []YearCount
	c.db.Model(&Movie{}).
		Select("year, count(*) as count").
		Where("year > 0").
		Group("year").
		Order("year desc").
		Find(&years)
	return years
}

type taxonomyLink struct {
	MovieID    uint
	CategoryID uint
	CountryID  uint
}

// hydrate fills each movie's category and country references. All ids on
// the page are fetched in one batch per taxonomy and filtered per movie,
// avoiding a taxonomy query per row.
func (c *Catalog) hydrate(movies []Movie) {
	if len(movies) == 0 {
		return
	}
	ids := make([]uint, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}

	var catLinks []taxonomyLink
	c.db.Table("movie_categories").Where("movie_id in ?", ids).Find(&catLinks)
	catIDs := make([]uint, 0, len(catLinks))
	for _, l := range catLinks {
		catIDs = append(catIDs, l.CategoryID)
	}
	var categories []Category
	if len(catIDs) > 0 {
		c.db.Where("id in ?", catIDs).Find(&categories)
	}
	catByID := make(map[uint]Category)
	for _, cat := range categories {
		catByID[cat.ID] = cat
	}

	var ctryLinks []taxonomyLink
	c.db.Table("movie_countries").Where("movie_id in ?", ids).Find(&ctryLinks)
	ctryIDs := make([]uint, 0, len(ctryLinks))
	for _, l := range ctryLinks {
		ctryIDs = append(ctryIDs, l.CountryID)
	}
	var countries []Country
	if len(ctryIDs) > 0 {
		c.db.Where("id in ?", ctryIDs).Find(&countries)
	}
	ctryByID := make(map[uint]Country)
	for _, ctry := range countries {
		ctryByID[ctry.ID] = ctry
	}

	for i := range movies {
		movies[i].Categories = []Category{}
		movies[i].Countries = []Country{}
		for _, l := range catLinks {
			if l.MovieID == movies[i].ID {
				movies[i].Categories = append(movies[i].Categories, catByID[l.CategoryID])
			}
		}
		for _, l := range ctryLinks {
			if l.MovieID == movies[i].ID {
				movies[i].Countries = append(movies[i].Countries, ctryByID[l.CountryID])
			}
		}
	}
}
