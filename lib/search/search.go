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

package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

type FieldMap map[string]interface{}
type IndexMap map[string]FieldMap

type Search struct {
	dir   string
	index bleve.Index
}

func NewSearch(dir string) *Search {
	return &Search{dir: dir}
}

func (s *Search) Open(name string) error {
	mapping := bleve.NewIndexMapping()
	path := fmt.Sprintf("%s/%s.bleve", s.dir, name)
	index, err := bleve.New(path, mapping)
	if err == bleve.ErrorIndexPathExists {
		index, err = bleve.Open(path)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	s.index = index
	return nil
}

func (s *Search) Close() {
	if s.index != nil {
		s.index.Close()
	}
}

// Search returns document keys ranked by text relevance, best match first.
func (s *Search) Search(q string, limit int) ([]string, error) {
	query := bleve.NewMatchQuery(q)
	request := bleve.NewSearchRequest(query)
	request.Size = limit
	result, err := s.index.Search(request)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, hit := range result.Hits {
		keys = append(keys, hit.ID)
	}
	return keys, nil
}

func (s *Search) Index(m IndexMap) {
	for k, v := range m {
		s.index.Index(k, v)
	}
}

func (s *Search) Delete(key string) {
	s.index.Delete(key)
}

func AddField(fields FieldMap, key string, value interface{}) {
	if v, ok := fields[key]; ok {
		switch v.(type) {
		case string:
			fields[key] = []string{v.(string), fmt.Sprint(value)}
		case []string:
			fields[key] = append(v.([]string), fmt.Sprint(value))
		}
	} else {
		fields[key] = value
	}
}
