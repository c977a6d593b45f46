// Package configs embeds the configuration templates written by
// `findtext config init`.
//
// Configuration layers (see internal/config Load):
//  1. Defaults (config.NewConfig)
//  2. User config (~/.config/findtext/config.yaml)
//  3. Project config (.findtext.yaml)
//  4. Files passed with --config
//  5. Environment variables (FINDTEXT_*)
package configs

import _ "embed"

// UserConfigTemplate is written by `findtext config init` to the user config path.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written by `findtext config init --project` to
// .findtext.yaml in the target directory.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
