// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"regexp"
	"strconv"
)

// SelectorKind identifies which rule of the selector grammar matched.
type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectMain
	SelectWorker
)

// DefaultSelector is used by batch commands when no host is given.
const DefaultSelector = "all"

var workerPattern = regexp.MustCompile(`^worker(\d+)$`)

// Selector is a parsed host pattern.
type Selector struct {
	Pattern string
	Kind    SelectorKind
	// Index is the worker index for SelectWorker, -1 when the literal does
	// not fit in an int.
	Index int
}

// ParseSelector parses a pattern of the grammar `all | * | main | worker<N>`.
//
// # Description
//
// Parsing does not look at any topology, so an out-of-range worker index
// is only reported by Resolve.
//
// # Outputs
//
//   - Selector: The parsed selector.
//   - error: *SelectorError when the pattern is not in the grammar.
func ParseSelector(pattern string) (Selector, error) {
	switch pattern {
	case "all", "*":
		return Selector{Pattern: pattern, Kind: SelectAll}, nil
	case "main":
		return Selector{Pattern: pattern, Kind: SelectMain}, nil
	}
	if m := workerPattern.FindStringSubmatch(pattern); m != nil {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			index = -1
		}
		return Selector{Pattern: pattern, Kind: SelectWorker, Index: index}, nil
	}
	return Selector{}, &SelectorError{
		Pattern: pattern,
		Reason:  "does not match any host (expected all, *, main or worker<N>)",
	}
}

// Resolve returns the hosts the selector designates, in topology order.
func (s Selector) Resolve(t *Topology) ([]Host, error) {
	switch s.Kind {
	case SelectAll:
		return t.Hosts(), nil
	case SelectMain:
		return []Host{t.Main()}, nil
	case SelectWorker:
		if s.Index < 0 || s.Index >= len(t.workers) {
			return nil, &NotFoundError{Pattern: s.Pattern, Index: s.Index, Count: len(t.workers)}
		}
		return []Host{t.workers[s.Index].clone()}, nil
	default:
		return nil, &SelectorError{Pattern: s.Pattern, Reason: "unknown selector kind"}
	}
}

// Resolve parses pattern and resolves it against the topology.
//
// # Description
//
// Rules, in priority order:
//  1. "all" or "*": every host, main first then workers in declared order.
//  2. "main": the main host.
//  3. "worker<N>": the worker at index N, or *NotFoundError.
//  4. anything else: *SelectorError.
//
// # Examples
//
//	hosts, err := topo.Resolve("worker0")
func (t *Topology) Resolve(pattern string) ([]Host, error) {
	sel, err := ParseSelector(pattern)
	if err != nil {
		return nil, err
	}
	return sel.Resolve(t)
}

// ResolveExactlyOne resolves pattern and requires the result to be a
// single host. Bulk commands use Resolve; interactive sessions use this.
func (t *Topology) ResolveExactlyOne(pattern string) (Host, error) {
	hosts, err := t.Resolve(pattern)
	if err != nil {
		return Host{}, err
	}
	switch len(hosts) {
	case 1:
		return hosts[0], nil
	case 0:
		return Host{}, &SelectorError{Pattern: pattern, Reason: "doesn't match any host"}
	default:
		return Host{}, &SelectorError{Pattern: pattern, Reason: "matches more than one host"}
	}
}
