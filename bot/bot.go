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

// Package bot answers Telegram inline queries with one-line movie cards.
// It consumes the catalog's search operation and nothing else.
package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/phimdb/phimdb/catalog"
	"github.com/phimdb/phimdb/config"
	"github.com/phimdb/phimdb/lib/log"
)

type Bot struct {
	config  *config.Config
	catalog *catalog.Catalog
	api     *tgbotapi.BotAPI
}

func NewBot(cfg *config.Config, cat *catalog.Catalog) *Bot {
	return &Bot{
		config:  cfg,
		catalog: cat,
	}
}

// Open connects the Telegram client once; reused for the process life.
// With no token configured the bot stays disabled.
func (b *Bot) Open() error {
	if b.config.Telegram.Token == "" {
		return nil
	}
	api, err := tgbotapi.NewBotAPI(b.config.Telegram.Token)
	if err != nil {
		return err
	}
	b.api = api
	log.Printf("telegram bot @%s\n", api.Self.UserName)
	return nil
}

func (b *Bot) Enabled() bool {
	return b.api != nil
}

// HandleUpdate processes one webhook update. Only inline queries reach
// the catalog.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	if update.InlineQuery != nil {
		b.handleInlineQuery(update.InlineQuery)
	}
}

func (b *Bot) handleInlineQuery(query *tgbotapi.InlineQuery) {
	limit := pageLimit(b.config.Telegram.PageLimit)
	offset := 0
	if query.Offset != "" {
		offset, _ = strconv.Atoi(query.Offset)
	}
	page := offset/limit + 1

	result, err := b.catalog.Search(catalog.Filter{
		Page:    page,
		PerPage: limit,
		Keyword: query.Query,
	})
	if err != nil {
		log.Println(err)
		return
	}

	var results []interface{}
	if page == 1 && len(result.Items) == 0 {
		article := tgbotapi.NewInlineQueryResultArticle(
			"nocontent", "No results found", "/search")
		results = append(results, article)
	} else {
		for _, m := range result.Items {
			results = append(results, movieCard(m))
		}
	}

	answer := tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       results,
		CacheTime:     1,
		NextOffset:    nextOffset(page, limit, len(result.Items)),
	}
	_, err = b.api.Request(answer)
	if err != nil {
		log.Println(err)
	}
}

const defaultPageLimit = 20

func pageLimit(limit int) int {
	if limit < 1 {
		return defaultPageLimit
	}
	return limit
}

// nextOffset tells Telegram where the next page starts; empty means no
// further pages. A short page is the last one.
func nextOffset(page, limit, count int) string {
	if count < limit {
		return ""
	}
	return strconv.Itoa(page * limit)
}

// movieCard renders one search hit as a one-line article.
func movieCard(m catalog.Movie) tgbotapi.InlineQueryResultArticle {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	article := tgbotapi.NewInlineQueryResultArticle(
		strconv.FormatUint(uint64(m.ID), 10), m.Name, m.Slug)
	article.ThumbURL = m.ThumbURL
	article.ThumbWidth = 100
	article.ThumbHeight = 100
	article.Description = fmt.Sprintf("%s | %s | %s",
		m.Language, m.Quality, strings.Join(names, ", "))
	return article
}
