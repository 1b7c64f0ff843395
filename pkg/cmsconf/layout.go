// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cmsconf

import (
	"fmt"
	"path"
	"strings"

	"github.com/jinterlante1206/cmsfleet/pkg/services"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
)

// Layout selects which document paths receive the derived values.
type Layout string

const (
	// LayoutCurrent targets the sectioned cms.toml of CMS 1.5.
	LayoutCurrent Layout = "current"

	// LayoutLegacy targets the flat cms.conf of CMS 1.4.
	LayoutLegacy Layout = "legacy"
)

// Placeholder services the current layout declares without bindings.
var optionalServices = []string{"PrometheusExporter", "TelegramBot"}

// ParseLayout converts a flag value to a Layout. The empty string means
// "pick from the template format".
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(s)); l {
	case "", LayoutCurrent, LayoutLegacy:
		return l, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want current or legacy)", s)
	}
}

// DefaultLayout is legacy for JSON templates and current otherwise.
func DefaultLayout(format Format) Layout {
	if format == FormatJSON {
		return LayoutLegacy
	}
	return LayoutCurrent
}

// Overwrites lists the (path, value) pairs written into the template.
//
// # Description
//
// The service map and database URL are always written. Listen addresses
// are written only when the topology provides them, so a template's own
// values survive otherwise.
//
// # Inputs
//
//   - t: The loaded topology
//
// # Outputs
//
//   - []Overwrite: Applied in order by Build
func (l Layout) Overwrites(t *topology.Topology) []Overwrite {
	tree := services.Synthesize(t).Tree()
	rankings := stringsToTree(t.Rankings())
	dbURL := services.DatabaseURL(t)

	if l == LayoutLegacy {
		return []Overwrite{
			{Path: "core_services", Value: tree},
			{Path: "database", Value: dbURL},
			{Path: "rankings", Value: rankings},
			{Path: "secret_key", Value: t.SecretKey()},
		}
	}

	for _, name := range optionalServices {
		tree[name] = []any{}
	}
	overwrites := []Overwrite{
		{Path: "services", Value: tree},
		{Path: "database.url", Value: dbURL},
		{Path: "proxy_service.rankings", Value: rankings},
		{Path: "web_server.secret_key", Value: t.SecretKey()},
	}

	ext := t.Main().Main
	if ext.AdminListenAddress != "" {
		overwrites = append(overwrites, Overwrite{
			Path:  "admin_web_server.listen_address",
			Value: ext.AdminListenAddress,
		})
	}
	if len(ext.ContestListenAddresses) > 0 {
		overwrites = append(overwrites, Overwrite{
			Path:  "contest_web_server.listen_address",
			Value: stringsToTree(ext.ContestListenAddresses),
		})
	}
	return overwrites
}

func stringsToTree(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// DefaultRemoteDir is where CMS looks for its configuration when it is
// installed system-wide.
const DefaultRemoteDir = "/usr/local/etc"

// RemotePath is where the rendered configuration is copied on each host:
// the topology's conf_path if set, else <cms_dir>/etc/<file>, else
// /usr/local/etc/<file>.
func RemotePath(t *topology.Topology, format Format) string {
	if p := t.ConfPath(); p != "" {
		return p
	}
	if dir := t.CMSDir(); dir != "" {
		return path.Join(dir, "etc", format.FileName())
	}
	return path.Join(DefaultRemoteDir, format.FileName())
}
