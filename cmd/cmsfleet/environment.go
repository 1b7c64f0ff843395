// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/jinterlante1206/cmsfleet/pkg/gateway"
	"github.com/jinterlante1206/cmsfleet/pkg/lifecycle"
	"github.com/jinterlante1206/cmsfleet/pkg/logging"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
)

// ConfEnvVar overrides the default topology path.
const ConfEnvVar = "CMSFLEET_CONF"

// DefaultConfPath is the topology file used when neither --conf nor
// CMSFLEET_CONF is given.
const DefaultConfPath = "conf.yaml"

// environment holds what a command run needs from the outside world.
// Tests replace the process manager and the prompt.
type environment struct {
	processes   gateway.ProcessManager
	interactive func() bool
	confirm     func(title, description string) (bool, error)
	logOutput   io.Writer

	// Populated by the root command's pre-run hook.
	flags  globalFlags
	logger *logging.Logger
	runID  string
}

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	conf        string
	logLevel    string
	logDir      string
	logJSON     bool
	personality string
}

func newEnvironment() *environment {
	return &environment{
		processes:   gateway.NewDefaultProcessManager(),
		interactive: ux.IsInteractive,
		confirm:     confirmPrompt,
	}
}

// setup configures output and logging once flags are parsed.
func (e *environment) setup() error {
	if e.flags.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(e.flags.personality))
	} else {
		ux.InitPersonality()
	}

	level, err := logging.ParseLevel(e.flags.logLevel)
	if err != nil {
		return err
	}
	e.runID = uuid.NewString()
	e.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  e.flags.logDir,
		Service: "cmsfleet",
		JSON:    e.flags.logJSON,
		Output:  e.logOutput,
	}).With("run_id", e.runID)
	return nil
}

func (e *environment) close() {
	if e.logger != nil {
		_ = e.logger.Close()
	}
}

// confPath resolves the topology path: --conf, then CMSFLEET_CONF, then
// conf.yaml.
func (e *environment) confPath() string {
	if e.flags.conf != "" {
		return e.flags.conf
	}
	if env := os.Getenv(ConfEnvVar); env != "" {
		return env
	}
	return DefaultConfPath
}

func (e *environment) loadTopology() (*topology.Topology, error) {
	path := e.confPath()
	topo, err := topology.Load(path)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("topology loaded", "path", path, "workers", len(topo.Workers()))
	return topo, nil
}

func (e *environment) gateway(topo *topology.Topology) gateway.Gateway {
	return gateway.New(gateway.Config{
		IdentityFile: topo.IdentityFile(),
		Processes:    e.processes,
		Logger:       e.logger,
	})
}

func (e *environment) controller(topo *topology.Topology) *lifecycle.Controller {
	return lifecycle.NewController(lifecycle.Config{
		Topology: topo,
		Gateway:  e.gateway(topo),
		Logger:   e.logger,
	})
}

// confirmPrompt asks a yes/no question on the terminal, defaulting to no.
func confirmPrompt(title, description string) (bool, error) {
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return confirmed, nil
}
