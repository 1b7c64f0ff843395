// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lifecycle

import (
	"fmt"
	"path"
	"strings"
)

// Service is a daemon managed through a named screen session.
type Service struct {
	// Name is the command-line name ("resource-service").
	Name string

	// Session is the screen session the daemon runs in.
	Session string

	// Binary is the CMS executable started in the session.
	Binary string

	// MainOnly services run on the main host only.
	MainOnly bool
}

// Managed services.
var (
	ResourceService = Service{
		Name:    "resource-service",
		Session: "resourceService",
		Binary:  "cmsResourceService",
	}
	LogService = Service{
		Name:     "log-service",
		Session:  "logService",
		Binary:   "cmsLogService",
		MainOnly: true,
	}
	Ranking = Service{
		Name:     "ranking",
		Session:  "ranking",
		Binary:   "cmsRankingWebServer",
		MainOnly: true,
	}
)

// Catalog lists every managed service.
var Catalog = []Service{ResourceService, LogService, Ranking}

// LookupService finds a service by command-line or session name,
// ignoring case.
func LookupService(name string) (Service, error) {
	for _, s := range Catalog {
		if strings.EqualFold(name, s.Name) || strings.EqualFold(name, s.Session) {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("unknown service %q (want %s)", name, strings.Join(ServiceNames(), ", "))
}

// ServiceNames returns the command-line names of the catalog.
func ServiceNames() []string {
	names := make([]string, len(Catalog))
	for i, s := range Catalog {
		names[i] = s.Name
	}
	return names
}

// DefaultSelector is the selector used when the operator gives none:
// "main" for main-only services, "all" otherwise.
func (s Service) DefaultSelector() string {
	if s.MainOnly {
		return "main"
	}
	return "all"
}

// BinaryPath returns the executable to start, under <cmsDir>/bin when
// cmsDir is set and on the remote PATH otherwise.
func (s Service) BinaryPath(cmsDir string) string {
	if cmsDir == "" {
		return s.Binary
	}
	return path.Join(cmsDir, "bin", s.Binary)
}
