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
	"strconv"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/spf13/cobra"
)

func newHostsCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts [HOST]",
		Short: "Show the hosts a selector resolves to",
		Long: `Print the hosts of the topology matched by HOST, in the order commands visit
them. Nothing is run on the hosts.

` + hostHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			selector := hostArg(args, 0)
			if selector == "" {
				selector = topology.DefaultSelector
			}
			hosts, err := topo.Resolve(selector)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(hosts))
			for _, h := range hosts {
				target := h.SSH.Target()
				if h.Kind == topology.KindLocal {
					target = "-"
				}
				rows = append(rows, []string{
					h.Name,
					h.Role.String(),
					h.Kind.String(),
					h.Address,
					target,
					strconv.Itoa(h.Workers),
				})
			}
			ux.Table([]string{"NAME", "ROLE", "KIND", "ADDRESS", "SSH", "WORKERS"}, rows)
			return nil
		},
	}
}
