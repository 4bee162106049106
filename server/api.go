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
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phimdb/phimdb/catalog"
	"github.com/phimdb/phimdb/lib/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must not exceed " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

// parseFilter reads the query string into a filter and validates it.
// Inputs past this point are known good; the engines never re-check.
func parseFilter(r *http.Request) (catalog.Filter, []FieldError) {
	var fieldErrors []FieldError
	q := r.URL.Query()

	intParam := func(name string) int {
		s := q.Get(name)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   name,
				Message: "must be an integer",
			})
			return 0
		}
		return n
	}

	f := catalog.Filter{
		Categories: q.Get("categories"),
		Countries:  q.Get("countries"),
		Type:       q.Get("type"),
		Status:     q.Get("status"),
		Keyword:    q.Get("keyword"),
		Year:       intParam("year"),
		Page:       intParam("page"),
		PerPage:    intParam("per_page"),
	}
	if fieldErrors != nil {
		return f, fieldErrors
	}

	err := validate.Struct(f)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrors = append(fieldErrors, FieldError{
					Field:   fe.Field(),
					Message: fe.Field() + " " + fieldMessage(fe),
				})
			}
		}
	}
	return f, fieldErrors
}

// GET /api/search > SearchResult
// 200: success
// 422: invalid filter
func (h *handler) apiSearch(w http.ResponseWriter, r *http.Request) {
	f, fieldErrors := parseFilter(r)
	if fieldErrors != nil {
		validationErr(w, fieldErrors)
		return
	}
	result, err := h.catalog.Search(f)
	if err != nil {
		log.Println(err)
		serverErr(w)
		return
	}
	writeJson(w, http.StatusOK, result)
}

// GET /api/movies > SearchResult
//
// Recent movies ordered by modification time; only pagination params
// apply here.
func (h *handler) apiMovies(w http.ResponseWriter, r *http.Request) {
	f, fieldErrors := parseFilter(r)
	if fieldErrors != nil {
		validationErr(w, fieldErrors)
		return
	}
	result, err := h.catalog.Search(catalog.Filter{Page: f.Page, PerPage: f.PerPage})
	if err != nil {
		log.Println(err)
		serverErr(w)
		return
	}
	writeJson(w, http.StatusOK, result)
}

// GET /api/lists/series > SearchResult
func (h *handler) apiSeries(w http.ResponseWriter, r *http.Request) {
	f, fieldErrors := parseFilter(r)
	if fieldErrors != nil {
		validationErr(w, fieldErrors)
		return
	}
	result, err := h.catalog.Search(catalog.Filter{
		Page:    f.Page,
		PerPage: f.PerPage,
		Type:    "series",
	})
	if err != nil {
		log.Println(err)
		serverErr(w)
		return
	}
	writeJson(w, http.StatusOK, result)
}

// GET /api/movies/:slug > DetailResult
// 200: success
// 404: unknown slug
func (h *handler) apiMovieDetail(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get(":slug")
	result, err := h.catalog.Detail(slug)
	if err != nil {
		if errors.Is(err, catalog.ErrMovieNotFound) {
			notFoundErr(w, "Slug does not exist in movies collection")
		} else {
			log.Println(err)
			serverErr(w)
		}
		return
	}
	writeJson(w, http.StatusOK, result)
}

// GET /api/categories > []Category
func (h *handler) apiCategories(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, h.catalog.Categories())
}

// GET /api/countries > []Country
func (h *handler) apiCountries(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, h.catalog.Countries())
}

// GET /api/years > []YearCount
func (h *handler) apiYears(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, h.catalog.Years())
}
