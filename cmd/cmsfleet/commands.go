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
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jinterlante1206/cmsfleet/pkg/lifecycle"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/spf13/cobra"
)

const hostHelp = `HOST selects the target hosts: all (or *), main, or workerN where N is the
position of the worker in the topology file, starting from 0.`

// newRootCmd builds the command tree bound to env.
func newRootCmd(env *environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmsfleet",
		Short: "Configure and operate the hosts of a CMS contest cluster",
		Long: `cmsfleet drives the hosts of a CMS contest cluster described by a topology
file (conf.yaml). It generates the CMS configuration for the whole cluster,
copies it to every host, and starts or stops the CMS daemons in named screen
sessions over ssh.

Generate a commented topology file with ` + "`cmsfleet init-conf`" + `.

` + hostHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.flags.conf, "conf", "",
		"Path to the topology file (default $"+ConfEnvVar+" or "+DefaultConfPath+")")
	flags.StringVar(&env.flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&env.flags.logDir, "log-dir", "", "Also write JSON logs to this directory")
	flags.BoolVar(&env.flags.logJSON, "log-json", false, "Write console logs as JSON")
	flags.StringVar(&env.flags.personality, "personality", "",
		"Output style: full, minimal or machine (default $CMSFLEET_PERSONALITY or auto)")

	rootCmd.AddCommand(
		newInitConfCmd(env),
		newRenderConfCmd(env),
		newCopyConfCmd(env),
		newCopyRankingImagesCmd(env),
		newRestartCmd(env),
		newStopCmd(env),
		newStatusCmd(env),
		newRunCmd(env),
		newConnectCmd(env),
		newHostsCmd(env),
	)
	return rootCmd
}

// execute runs the command line and returns the process exit code.
func execute(args []string, env *environment) int {
	defer env.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(env)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if code == CLIExitError {
		ux.Error(err.Error())
	}
	if err != nil && env.logger != nil {
		env.logger.Error("command failed", "error", err.Error(), "exit_code", code)
	}
	return code
}

// hostArg returns the optional trailing HOST argument, or "".
func hostArg(args []string, index int) string {
	if len(args) > index {
		return args[index]
	}
	return ""
}

func serviceList() string {
	return strings.Join(lifecycle.ServiceNames(), ", ")
}
