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

package server

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/phimdb/phimdb/catalog"
	"github.com/phimdb/phimdb/config"
	"github.com/phimdb/phimdb/lib/log"
)

// schedule starts the periodic crawl. A run always completes and reports
// through the log; per-title failures are retried only by the next run.
func schedule(cfg *config.Config, cat *catalog.Catalog) {
	scheduler := gocron.NewScheduler(time.UTC)

	scheduler.Every(cfg.Crawl.SyncInterval).WaitForSchedule().Do(func() {
		log.Printf("sync catalog\n")
		results := cat.Sync()
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		log.Printf("sync done: %d titles, %d failed\n", len(results), failed)
	})

	scheduler.StartAsync()
}
