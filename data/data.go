// Package data embeds the default content corpus and tilemaps.
package data

import "embed"

// FS holds the *.json content files, i18n tables and maps.
//
//go:embed *.json i18n/*.json maps/*
var FS embed.FS
