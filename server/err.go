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
	"encoding/json"
	"net/http"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// validationErr is the client error for bad query input; no storage
// access has happened by the time it is produced.
func validationErr(w http.ResponseWriter, errors []FieldError) {
	writeJson(w, http.StatusUnprocessableEntity, ErrorResponse{
		Message: "Invalid request",
		Errors:  errors,
	})
}

func notFoundErr(w http.ResponseWriter, msg string) {
	writeJson(w, http.StatusNotFound, ErrorResponse{Message: msg})
}

func serverErr(w http.ResponseWriter) {
	writeJson(w, http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
}
