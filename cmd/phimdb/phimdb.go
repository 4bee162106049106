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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phimdb/phimdb/config"
)

var rootCmd = &cobra.Command{
	Use:   "phimdb",
	Short: "Phimdb is a movie catalog service",
}

var configFile string
var configPath string
var configName string

func getConfig() (*config.Config, error) {
	if configPath == "" {
		configPath = os.Getenv("PHIMDB_HOME")
	}
	if configName == "" {
		configName = os.Getenv("PHIMDB_CONFIG")
	}
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		if configPath == "" {
			configPath = "."
		}
		if configName == "" {
			configName = "phimdb"
		}
		config.AddConfigPath(configPath)
		config.SetConfigName(configName)
	}
	return config.GetConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
