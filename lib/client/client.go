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

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"

	"github.com/phimdb/phimdb/lib/log"
)

const DirectiveMaxAge = "max-age"

var (
	HeaderUserAgent    = http.CanonicalHeaderKey("User-Agent")
	HeaderCacheControl = http.CanonicalHeaderKey("Cache-Control")
)

type Config struct {
	UseCache  bool
	CacheDir  string
	MaxAge    time.Duration
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	client    *http.Client
	useCache  bool
	userAgent string
	cache     httpcache.Cache
	maxAge    time.Duration
}

func NewClient(config Config) *Client {
	c := Client{}
	c.userAgent = config.UserAgent
	c.useCache = config.UseCache
	if c.useCache {
		c.maxAge = config.MaxAge
		c.cache = diskcache.New(config.CacheDir)
		transport := httpcache.NewTransport(c.cache)
		c.client = transport.Client()
	} else {
		c.client = &http.Client{}
	}
	// a hung remote fetch is a per-item failure, not a pipeline stall
	c.client.Timeout = config.Timeout
	return &c
}

func (c *Client) doGet(urlStr string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderUserAgent, c.userAgent)
	if c.useCache {
		maxAge := int(c.maxAge.Seconds())
		if maxAge > 0 {
			req.Header.Set(HeaderCacheControl,
				fmt.Sprintf("%s=%d", DirectiveMaxAge, maxAge))
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return resp, errors.New(fmt.Sprintf("http error %d: %s",
			resp.StatusCode, req.URL.String()))
	}

	return resp, err
}

const (
	maxAttempts = 3
	backoff     = time.Second * 3
)

func (c *Client) doGetWithRetry(url string) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = c.doGet(url)
		if err == nil || resp == nil {
			// success, or error with no response
			break
		}
		if resp.StatusCode < http.StatusInternalServerError &&
			resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		// server error, try again with backoff
		if attempt+1 < maxAttempts {
			log.Printf("got %d: retry attempt %d of %d\n",
				resp.StatusCode, attempt+1, maxAttempts)
			time.Sleep(backoff)
		}
	}

	return resp, err
}

func (c *Client) Get(url string) ([]byte, error) {
	resp, err := c.doGetWithRetry(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) GetJson(url string, result interface{}) error {
	resp, err := c.doGetWithRetry(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	decoder := json.NewDecoder(resp.Body)
	if err = decoder.Decode(result); err != nil {
		return err
	}
	return nil
}
