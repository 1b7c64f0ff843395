// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"fmt"
	"strconv"
)

// Role tags a host as the cluster's main host or one of its workers.
type Role int

const (
	// RoleMain is the single host running the database and the
	// cluster-wide services.
	RoleMain Role = iota

	// RoleWorker is any additional host contributing resource and
	// worker slots.
	RoleWorker
)

// String returns "main" or "worker".
func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// Kind selects how commands reach a host.
type Kind int

const (
	// KindRemote hosts are reached over ssh/scp with the shared identity file.
	KindRemote Kind = iota

	// KindLocal hosts are the machine the operator is running on.
	KindLocal
)

// String returns "remote" or "local".
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// SSH holds the remote-access credential of a host.
type SSH struct {
	// Address is the address ssh connects to. It may differ from the
	// host's service address (public vs private network).
	Address string

	// Username is the remote login.
	Username string
}

// Target returns "username@address".
func (s SSH) Target() string {
	return s.Username + "@" + s.Address
}

// Database is the main host's database credential block.
type Database struct {
	Name     string
	Username string
	Password string
	// Port defaults to DefaultDatabasePort when not given.
	Port int
}

// DefaultDatabasePort is the PostgreSQL port used when the topology does
// not specify one.
const DefaultDatabasePort = 5432

// MainExtension carries the fields only the main host has.
type MainExtension struct {
	DB Database

	// AdminListenAddress is the admin web server bind address ("" = keep
	// the template's value).
	AdminListenAddress string

	// ContestListenAddresses are the contest web server bind addresses
	// (nil = keep the template's value).
	ContestListenAddresses []string
}

// Host is one machine of the cluster.
//
// Hosts are built once by Load and never mutated afterwards. The
// main-only fields live in Main, which is nil for workers.
type Host struct {
	// Name is the selector name of the host: "main" or "worker<N>".
	Name string

	// Address is the network address other services use to reach the host.
	Address string

	// Workers is the number of worker slots (may be zero).
	Workers int

	Role Role
	Kind Kind
	SSH  SSH

	// Main is non-nil exactly when Role == RoleMain.
	Main *MainExtension
}

// clone returns a copy of h that shares no memory with it.
func (h Host) clone() Host {
	if h.Main != nil {
		ext := *h.Main
		if ext.ContestListenAddresses != nil {
			ext.ContestListenAddresses = append([]string(nil), ext.ContestListenAddresses...)
		}
		h.Main = &ext
	}
	return h
}

// IsMain reports whether h is the main host.
func (h Host) IsMain() bool {
	return h.Role == RoleMain
}

// String returns a short description used in logs and error messages.
func (h Host) String() string {
	return fmt.Sprintf("%s (%s)", h.Name, h.Address)
}

// workerName returns the selector name of the worker at index i.
func workerName(i int) string {
	return "worker" + strconv.Itoa(i)
}
