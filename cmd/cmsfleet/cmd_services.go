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
	"errors"

	"github.com/jinterlante1206/cmsfleet/pkg/lifecycle"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/spf13/cobra"
)

// errDropNeedsYes is returned when --drop cannot be confirmed.
var errDropNeedsYes = errors.New("restarting the ranking with --drop deletes its stored data; " +
	"pass --yes to confirm when not running in a terminal")

func newRestartCmd(env *environment) *cobra.Command {
	var opts lifecycle.Options

	cmd := &cobra.Command{
		Use:   "restart SERVICE [HOST]",
		Short: "Start or restart a CMS service in its screen session",
		Long: `Kill the service's screen session, if any, and start a fresh one.

SERVICE is one of: ` + serviceList() + `.
log-service and ranking run on the main host only and default to HOST=main;
resource-service defaults to HOST=all.

` + hostHelp,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := lifecycle.LookupService(args[0])
			if err != nil {
				return err
			}
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			ctrl := env.controller(topo)
			if svc.Session == lifecycle.Ranking.Session && opts.RankingDrop && !opts.RankingYes {
				// Selector errors are reported before the operator is asked.
				if _, err := ctrl.Targets(svc.Name, hostArg(args, 1)); err != nil {
					return err
				}
				confirmed, err := confirmDrop(env)
				if err != nil {
					return err
				}
				if !confirmed {
					ux.Warning("ranking restart cancelled")
					return nil
				}
				opts.RankingYes = true
			}
			report, err := ctrl.Restart(cmd.Context(), svc.Name, hostArg(args, 1), opts)
			if err != nil {
				return err
			}
			return finishReport(report)
		},
	}

	cmd.Flags().StringVarP(&opts.ContestID, "contest-id", "c", lifecycle.DefaultContestID,
		"Contest id served by the resource service, or ALL to serve all contests")
	cmd.Flags().BoolVar(&opts.RankingDrop, "drop", false, "Ranking only: drop the data already stored")
	cmd.Flags().BoolVar(&opts.RankingYes, "yes", false, "Ranking only: do not ask for confirmation before dropping data")
	return cmd
}

// confirmDrop asks the operator to confirm a ranking data drop. The
// ranking server runs detached and cannot ask by itself.
func confirmDrop(env *environment) (bool, error) {
	if !env.interactive() {
		return false, errDropNeedsYes
	}
	return env.confirm(
		"Drop all ranking data?",
		"The ranking web server will delete the scores it has stored.",
	)
}

func newStopCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "stop SERVICE [HOST]",
		Short: "Stop a CMS service by killing its screen session",
		Long: `Kill the service's screen session. A host where the session does not exist
reports a non-zero exit status and counts as failed.

SERVICE is one of: ` + serviceList() + `.

` + hostHelp,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			report, err := env.controller(topo).Stop(cmd.Context(), args[0], hostArg(args, 1))
			if err != nil {
				return err
			}
			return finishReport(report)
		},
	}
}

func newStatusCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status [HOST]",
		Short: "List the screen sessions running on the host(s)",
		Long: `Run ` + "`" + lifecycle.StatusCommand + "`" + ` on every selected host. A host with no sessions
reports a non-zero exit status.

` + hostHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			report, err := env.controller(topo).Status(cmd.Context(), hostArg(args, 0))
			if err != nil {
				return err
			}
			return finishReport(report)
		},
	}
}

func newRunCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "run COMMAND [HOST]",
		Short: "Run a shell command on the host(s)",
		Long: `Run COMMAND through the remote shell of every selected host, one host at a
time. A failing host does not stop the others.

` + hostHelp,
		Example: `  cmsfleet run 'df -h /' all
  cmsfleet run 'sudo systemctl restart postgresql' main`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			report, err := env.controller(topo).RunCommand(cmd.Context(), args[0], hostArg(args, 1))
			if err != nil {
				return err
			}
			return finishReport(report)
		},
	}
}

func newConnectCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "connect HOST",
		Short: "Open an interactive shell on a single host",
		Long: `Replace cmsfleet with an ssh session to HOST. HOST must select exactly one
host, so all and * are only accepted by a single-host topology.

` + hostHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			return env.controller(topo).Connect(args[0])
		},
	}
}
