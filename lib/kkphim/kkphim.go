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

// Package kkphim is a client for the kkphim / phimapi.com catalog, the
// external source of movie and episode metadata. The API has two read-only
// endpoints: a paginated recently-updated listing and a per-slug detail
// document with nested server/episode data.
package kkphim

import (
	"fmt"
	"net/url"

	"github.com/phimdb/phimdb/lib/client"
)

type KKPhim struct {
	baseURL string
	client  *client.Client
}

func NewKKPhim(baseURL string, client *client.Client) *KKPhim {
	return &KKPhim{
		baseURL: baseURL,
		client:  client,
	}
}

// Taxonomy is a category or country reference embedded in a detail document.
type Taxonomy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Modified struct {
	Time string `json:"time"`
}

// Listing is one entry of the recently-updated page; only the slug is
// needed to fetch the full detail document.
type Listing struct {
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	OriginName string   `json:"origin_name"`
	Year       int      `json:"year"`
	Modified   Modified `json:"modified"`
}

type listPage struct {
	Status bool      `json:"status"`
	Items  []Listing `json:"items"`
}

type Movie struct {
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	OriginName     string     `json:"origin_name"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	PosterURL      string     `json:"poster_url"`
	ThumbURL       string     `json:"thumb_url"`
	Time           string     `json:"time"`
	EpisodeCurrent string     `json:"episode_current"`
	EpisodeTotal   string     `json:"episode_total"`
	Quality        string     `json:"quality"`
	Lang           string     `json:"lang"`
	Year           int        `json:"year"`
	Modified       Modified   `json:"modified"`
	Category       []Taxonomy `json:"category"`
	Country        []Taxonomy `json:"country"`
}

type ServerEpisode struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Filename  string `json:"filename"`
	LinkEmbed string `json:"link_embed"`
	LinkM3u8  string `json:"link_m3u8"`
}

type Server struct {
	ServerName string          `json:"server_name"`
	ServerData []ServerEpisode `json:"server_data"`
}

// Detail is the full per-title document.
type Detail struct {
	Status   bool     `json:"status"`
	Movie    Movie    `json:"movie"`
	Episodes []Server `json:"episodes"`
}

// ListUpdated fetches one page of the recently-updated listing. Pages are
// 1-indexed; the API gives no total so callers iterate to a configured max.
func (k *KKPhim) ListUpdated(page int) ([]Listing, error) {
	u := fmt.Sprintf("%s/danh-sach/phim-moi-cap-nhat?page=%d", k.baseURL, page)
	var result listPage
	err := k.client.GetJson(u, &result)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// MovieDetail fetches the detail document for a slug.
func (k *KKPhim) MovieDetail(slug string) (*Detail, error) {
	u := fmt.Sprintf("%s/phim/%s", k.baseURL, url.PathEscape(slug))
	var result Detail
	err := k.client.GetJson(u, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
