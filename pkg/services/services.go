// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services derives the cluster-wide service map from a topology.
//
// Synthesize is a pure function: the same topology always yields the same
// BindingMap. Port numbers are a fixed contract shared with the contest
// daemons; changing any of them is a breaking change for deployed hosts.
package services

import (
	"net"
	"net/url"
	"strconv"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
)

// Logical service names, as they appear in the generated configuration.
const (
	LogService        = "LogService"
	ResourceService   = "ResourceService"
	ScoringService    = "ScoringService"
	Checker           = "Checker"
	EvaluationService = "EvaluationService"
	Worker            = "Worker"
	ContestWebServer  = "ContestWebServer"
	AdminWebServer    = "AdminWebServer"
	ProxyService      = "ProxyService"
	PrintingService   = "PrintingService"
)

// Fixed ports.
const (
	ResourceServicePort   = 28000
	WorkerBasePort        = 26000
	LogServicePort        = 29000
	ScoringServicePort    = 28500
	CheckerPort           = 22000
	EvaluationServicePort = 25000
	ContestWebServerPort  = 21000
	AdminWebServerPort    = 21100
	ProxyServicePort      = 28600
	PrintingServicePort   = 25123
)

// Names lists every service Synthesize emits, in a stable order.
var Names = []string{
	LogService,
	ResourceService,
	ScoringService,
	Checker,
	EvaluationService,
	Worker,
	ContestWebServer,
	AdminWebServer,
	ProxyService,
	PrintingService,
}

// mainOnly are the singleton services bound to the main host.
var mainOnly = []struct {
	name string
	port int
}{
	{LogService, LogServicePort},
	{ScoringService, ScoringServicePort},
	{Checker, CheckerPort},
	{EvaluationService, EvaluationServicePort},
	{ContestWebServer, ContestWebServerPort},
	{AdminWebServer, AdminWebServerPort},
	{ProxyService, ProxyServicePort},
	{PrintingService, PrintingServicePort},
}

// Binding is an (address, port) pair at which a service is reachable.
type Binding struct {
	Address string
	Port    int
}

// String returns "address:port".
func (b Binding) String() string {
	return net.JoinHostPort(b.Address, strconv.Itoa(b.Port))
}

// BindingMap maps a logical service name to its ordered bindings.
type BindingMap map[string][]Binding

// Tree converts the map into the generic form used by configuration
// documents: each binding becomes a two-element [address, port] list.
// Empty services become empty lists, never nil.
func (m BindingMap) Tree() map[string]any {
	out := make(map[string]any, len(m))
	for name, bindings := range m {
		list := make([]any, 0, len(bindings))
		for _, b := range bindings {
			list = append(list, []any{b.Address, int64(b.Port)})
		}
		out[name] = list
	}
	return out
}

// Synthesize derives the service map from the topology.
//
// # Description
//
// Hosts are visited in topology order (main first). Every host exposes a
// ResourceService on ResourceServicePort and one Worker per slot on
// WorkerBasePort+i. Worker ports are numbered per host, so two hosts may
// both expose port 26000; they are told apart by address. The remaining
// services are singletons on the main host.
//
// # Outputs
//
//   - BindingMap: Contains exactly the keys listed in Names.
func Synthesize(t *topology.Topology) BindingMap {
	hosts := t.Hosts()

	resource := make([]Binding, 0, len(hosts))
	workers := make([]Binding, 0)
	for _, h := range hosts {
		resource = append(resource, Binding{Address: h.Address, Port: ResourceServicePort})
		for i := 0; i < h.Workers; i++ {
			workers = append(workers, Binding{Address: h.Address, Port: WorkerBasePort + i})
		}
	}

	m := BindingMap{
		ResourceService: resource,
		Worker:          workers,
	}
	mainAddress := t.Main().Address
	for _, s := range mainOnly {
		m[s.name] = []Binding{{Address: mainAddress, Port: s.port}}
	}
	return m
}

// DatabaseURLScheme is the driver prefix of the generated connection string.
const DatabaseURLScheme = "postgresql+psycopg2"

// DatabaseURL assembles the connection string of the main host's database:
//
//	postgresql+psycopg2://<user>:<password>@<main address>:<port>/<name>
//
// The port defaults to 5432 when the topology leaves it unset.
func DatabaseURL(t *topology.Topology) string {
	main := t.Main()
	db := main.Main.DB
	port := db.Port
	if port == 0 {
		port = topology.DefaultDatabasePort
	}
	u := url.URL{
		Scheme: DatabaseURLScheme,
		User:   url.UserPassword(db.Username, db.Password),
		Host:   net.JoinHostPort(main.Address, strconv.Itoa(port)),
		Path:   "/" + db.Name,
	}
	return u.String()
}
