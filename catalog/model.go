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
	"time"

	"github.com/phimdb/phimdb/lib/gorm"
)

// Category and Country are taxonomy rows, deduplicated by slug across the
// whole store. Names may collide between entries; slugs are canonical.
type Category struct {
	gorm.Model
	Name string `json:"name"`
	Slug string `gorm:"uniqueIndex:idx_category_slug" json:"slug"`
}

type Country struct {
	gorm.Model
	Name string `json:"name"`
	Slug string `gorm:"uniqueIndex:idx_country_slug" json:"slug"`
}

// Movie identity is the slug; re-ingesting the same title updates the same
// row. Categories and Countries are reference sets resolved at write time.
// Episodes is the link list rebuilt after each successful ingestion pass.
type Movie struct {
	gorm.Model
	Name           string     `json:"name"`
	OriginalName   string     `json:"originalName"`
	Slug           string     `gorm:"uniqueIndex:idx_movie_slug" json:"slug"`
	Synopsis       string     `json:"synopsis"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	PosterURL      string     `json:"posterUrl"`
	ThumbURL       string     `json:"thumbUrl"`
	Runtime        string     `json:"runtime"`
	EpisodeCurrent string     `json:"episodeCurrent"`
	EpisodeTotal   string     `json:"episodeTotal"`
	Quality        string     `json:"quality"`
	Language       string     `json:"language"`
	Year           int        `json:"year"`
	ModifiedTimeAt time.Time  `json:"modifiedTimeAt"`
	Categories     []Category `gorm:"many2many:movie_categories" json:"categories"`
	Countries      []Country  `gorm:"many2many:movie_countries" json:"countries"`
	Episodes       []Episode  `gorm:"many2many:movie_episodes" json:"-"`
}

// Episode identity is the composite (movie, serverName, episodeSlug).
type Episode struct {
	gorm.Model
	Name             string `json:"name"`
	EpisodeSlug      string `gorm:"uniqueIndex:idx_episode_key" json:"episodeSlug"`
	Season           int    `json:"season,omitempty"`
	EpisodeNumber    int    `json:"episodeNumber"`
	EpisodeLinkEmbed string `json:"episodeLinkEmbed"`
	EpisodeLinkM3u8  string `json:"episodeLinkM3u8"`
	ServerName       string `gorm:"uniqueIndex:idx_episode_key" json:"serverName"`
	MovieID          uint   `gorm:"uniqueIndex:idx_episode_key" json:"movie"`
}

// EpisodeGroup clusters a movie's episodes by server for the detail view.
type EpisodeGroup struct {
	ServerName string    `json:"serverName"`
	Count      int       `json:"count"`
	Episodes   []Episode `json:"episodes"`
}

// YearCount is one bucket of the year histogram.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

func modelWithID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}
