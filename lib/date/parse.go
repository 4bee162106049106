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

package date

import (
	"errors"
	"time"
)

var ErrInvalidTime = errors.New("invalid time")

// ParseModified parses the catalog source's modification timestamp. The
// source sends RFC3339 with and without sub-second precision, which the
// RFC3339 layout covers both ways; anything else is an error since this
// value drives freshness ordering.
func ParseModified(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrInvalidTime
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return t, nil
}

func FormatJson(t time.Time) string {
	return t.Format(time.RFC3339)
}
