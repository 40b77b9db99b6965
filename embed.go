package cs4teachers

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// styles.css and admin.js (map address and geolocation widgets)
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
