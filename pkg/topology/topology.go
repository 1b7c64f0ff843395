// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package topology models a contest cluster: one main host, an ordered
// list of worker hosts and the cluster-wide settings shared by all of them.
//
// # Loading
//
// A Topology is loaded once from a YAML document and is immutable for the
// rest of the process:
//
//	topo, err := topology.Load("conf.yaml")
//	if err != nil {
//	    return err // *topology.ConfigError
//	}
//
// # Selecting hosts
//
// Commands address hosts through a selector pattern:
//
//	all | * | main | worker<N>
//
// Resolve returns the matching hosts in topology order; ResolveExactlyOne
// is used by commands that must target a single host.
//
//	hosts, err := topo.Resolve("worker1")
package topology

// Topology is the static description of the cluster.
//
// Worker order is significant: it determines each worker's selector index.
type Topology struct {
	main    Host
	workers []Host

	rankings     []string
	secretKey    string
	identityFile string
	cmsDir       string
	confPath     string
}

// Main returns a copy of the main host.
func (t *Topology) Main() Host {
	return t.main.clone()
}

// Workers returns a copy of the worker hosts in declared order.
func (t *Topology) Workers() []Host {
	out := make([]Host, len(t.workers))
	for i, w := range t.workers {
		out[i] = w.clone()
	}
	return out
}

// Hosts returns the main host followed by the workers in declared order.
// Every host returned is a copy.
func (t *Topology) Hosts() []Host {
	out := make([]Host, 0, 1+len(t.workers))
	out = append(out, t.main.clone())
	for _, w := range t.workers {
		out = append(out, w.clone())
	}
	return out
}

// Worker returns the worker at index, or a *NotFoundError when index is
// outside [0, len(workers)).
func (t *Topology) Worker(index int) (Host, error) {
	if index < 0 || index >= len(t.workers) {
		return Host{}, &NotFoundError{
			Pattern: workerName(index),
			Index:   index,
			Count:   len(t.workers),
		}
	}
	return t.workers[index].clone(), nil
}

// Rankings returns the ranking-server addresses.
func (t *Topology) Rankings() []string {
	out := make([]string, len(t.rankings))
	copy(out, t.rankings)
	return out
}

// SecretKey returns the cluster-wide secret key.
func (t *Topology) SecretKey() string {
	return t.secretKey
}

// IdentityFile returns the path of the identity file used for all remote
// access.
func (t *Topology) IdentityFile() string {
	return t.identityFile
}

// CMSDir returns the deployment root on every host, or "" when binaries
// are expected on the remote PATH.
func (t *Topology) CMSDir() string {
	return t.cmsDir
}

// ConfPath returns the explicit remote configuration path, or "" when the
// path is derived from the template format.
func (t *Topology) ConfPath() string {
	return t.confPath
}
