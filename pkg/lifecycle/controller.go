// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lifecycle starts, stops and inspects CMS daemons across the
// cluster.
//
// Each daemon runs in a named screen session on its host. Hosts are
// processed one at a time in selector order; a host whose command fails
// is recorded in the Report and the batch moves on to the next host.
// Configuration distribution is the exception: the first failed copy
// aborts the batch.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinterlante1206/cmsfleet/pkg/gateway"
	"github.com/jinterlante1206/cmsfleet/pkg/logging"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/jinterlante1206/cmsfleet/pkg/validation"
)

// DefaultContestID makes the resource service serve every contest.
const DefaultContestID = validation.AllContests

// Options carries service-specific start arguments.
type Options struct {
	// ContestID is passed to the resource service as -a. Default: ALL.
	ContestID string

	// RankingYes passes --yes to the ranking web server.
	RankingYes bool

	// RankingDrop passes --drop to the ranking web server.
	RankingDrop bool
}

// HostResult is the outcome of one command on one host.
type HostResult struct {
	Host     topology.Host
	Command  string
	ExitCode int
	Err      error
}

// OK reports whether the command succeeded.
func (r HostResult) OK() bool {
	return r.Err == nil
}

// Report collects the per-host results of a batch, in host order.
type Report struct {
	Results []HostResult
}

// Failed returns the results that did not succeed.
func (r *Report) Failed() []HostResult {
	var failed []HostResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded counts the successful results.
func (r *Report) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// Err joins the per-host errors, or returns nil when every host succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

// Config configures a Controller.
type Config struct {
	Topology *topology.Topology
	Gateway  gateway.Gateway

	// Logger defaults to a discarding logger.
	Logger *logging.Logger

	// Announce is called before the commands of each host. Default: ux.Host.
	Announce func(host topology.Host)
}

// Controller dispatches lifecycle operations to the hosts a selector
// resolves to.
type Controller struct {
	topo     *topology.Topology
	gw       gateway.Gateway
	logger   *logging.Logger
	announce func(topology.Host)
}

// NewController creates a Controller from config.
func NewController(config Config) *Controller {
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	announce := config.Announce
	if announce == nil {
		announce = func(h topology.Host) { ux.Host(h.Name, h.Address) }
	}
	return &Controller{
		topo:     config.Topology,
		gw:       config.Gateway,
		logger:   logger,
		announce: announce,
	}
}

// Restart quits and restarts service on every selected host.
//
// # Description
//
// The selector is resolved before anything runs, so selector and lookup
// errors abort with no command issued. An empty selector uses the
// service's default. Main-only services reject selectors that reach a
// worker.
//
// # Inputs
//
//   - ctx: Context for cancellation
//   - service: Catalog name or session name ("resource-service", "ranking")
//   - selector: Host selector pattern, "" for the service default
//   - opts: Start arguments
//
// # Outputs
//
//   - *Report: Per-host results; check Report.Err for command failures
//   - error: Fatal error (unknown service, invalid contest id,
//     *topology.SelectorError, *topology.NotFoundError)
//
// # Examples
//
//	report, err := ctrl.Restart(ctx, "resource-service", "worker0", lifecycle.Options{})
func (c *Controller) Restart(ctx context.Context, service, selector string, opts Options) (*Report, error) {
	svc, hosts, err := c.serviceHosts(service, selector)
	if err != nil {
		return nil, err
	}
	argv, err := c.startArgv(svc, opts)
	if err != nil {
		return nil, err
	}
	c.logger.Info("restarting service", "service", svc.Name, "selector", selector, "hosts", len(hosts))
	return c.runEach(ctx, hosts, RestartCommand(svc.Session, argv...)), nil
}

// Stop quits the service's session on every selected host.
func (c *Controller) Stop(ctx context.Context, service, selector string) (*Report, error) {
	svc, hosts, err := c.serviceHosts(service, selector)
	if err != nil {
		return nil, err
	}
	c.logger.Info("stopping service", "service", svc.Name, "selector", selector, "hosts", len(hosts))
	return c.runEach(ctx, hosts, QuitCommand(svc.Session)), nil
}

// Status lists the screen sessions of every selected host. The output is
// shown to the operator as is.
func (c *Controller) Status(ctx context.Context, selector string) (*Report, error) {
	hosts, err := c.resolve(selector, topology.DefaultSelector)
	if err != nil {
		return nil, err
	}
	return c.runEach(ctx, hosts, StatusCommand), nil
}

// RunCommand runs an arbitrary shell command on every selected host.
func (c *Controller) RunCommand(ctx context.Context, command, selector string) (*Report, error) {
	if command == "" {
		return nil, errors.New("empty command")
	}
	hosts, err := c.resolve(selector, topology.DefaultSelector)
	if err != nil {
		return nil, err
	}
	return c.runEach(ctx, hosts, command), nil
}

// Distribute copies the local file src to dst on every selected host.
//
// # Description
//
// Unlike the other batch operations, the first failed copy stops the
// batch: a configuration that reached only part of the cluster must not
// go unnoticed. The returned Report holds the hosts attempted so far.
//
// # Outputs
//
//   - *Report: Results of the hosts attempted
//   - error: Selector errors, or the *gateway.TransferError that stopped
//     the batch
func (c *Controller) Distribute(ctx context.Context, src, dst, selector string) (*Report, error) {
	hosts, err := c.resolve(selector, topology.DefaultSelector)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, host := range hosts {
		c.announce(host)
		err := c.gw.Copy(ctx, host, src, dst)
		report.Results = append(report.Results, HostResult{Host: host, Command: "copy " + dst, Err: err})
		if err != nil {
			c.logger.Error("configuration distribution aborted", "host", host.Name, "error", err.Error())
			return report, err
		}
	}
	return report, nil
}

// Connect replaces the process with a shell on the single host the
// selector names. It does not return on success.
func (c *Controller) Connect(selector string) error {
	host, err := c.topo.ResolveExactlyOne(selector)
	if err != nil {
		return err
	}
	return c.gw.ConnectInteractive(host)
}

// Targets returns the hosts a service operation with selector would
// visit, applying the service's default selector and placement rules.
// Nothing is run.
func (c *Controller) Targets(service, selector string) ([]topology.Host, error) {
	_, hosts, err := c.serviceHosts(service, selector)
	return hosts, err
}

func (c *Controller) resolve(selector, fallback string) ([]topology.Host, error) {
	if selector == "" {
		selector = fallback
	}
	return c.topo.Resolve(selector)
}

func (c *Controller) serviceHosts(service, selector string) (Service, []topology.Host, error) {
	svc, err := LookupService(service)
	if err != nil {
		return Service{}, nil, err
	}
	if selector == "" {
		selector = svc.DefaultSelector()
	}
	hosts, err := c.topo.Resolve(selector)
	if err != nil {
		return Service{}, nil, err
	}
	if svc.MainOnly {
		for _, h := range hosts {
			if !h.IsMain() {
				return Service{}, nil, &topology.SelectorError{
					Pattern: selector,
					Reason:  fmt.Sprintf("%s runs only on main, but the selector includes %s", svc.Name, h.Name),
				}
			}
		}
	}
	return svc, hosts, nil
}

func (c *Controller) startArgv(svc Service, opts Options) ([]string, error) {
	argv := []string{svc.BinaryPath(c.topo.CMSDir())}
	switch svc.Session {
	case ResourceService.Session:
		contest, err := validation.SanitizeContestID(opts.ContestID)
		if err != nil {
			return nil, err
		}
		argv = append(argv, "-a", contest)
	case Ranking.Session:
		if opts.RankingYes {
			argv = append(argv, "--yes")
		}
		if opts.RankingDrop {
			argv = append(argv, "--drop")
		}
	}
	return argv, nil
}

// runEach runs command on every host, continuing past failures.
func (c *Controller) runEach(ctx context.Context, hosts []topology.Host, command string) *Report {
	report := &Report{}
	for _, host := range hosts {
		if ctx.Err() != nil {
			report.Results = append(report.Results, HostResult{Host: host, Command: command, ExitCode: -1, Err: ctx.Err()})
			continue
		}
		c.announce(host)
		code, err := c.gw.Run(ctx, host, command)
		report.Results = append(report.Results, HostResult{Host: host, Command: command, ExitCode: code, Err: err})
	}
	return report
}
