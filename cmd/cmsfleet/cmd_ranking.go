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

	"github.com/jinterlante1206/cmsfleet/pkg/lifecycle"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/spf13/cobra"
)

func newCopyRankingImagesCmd(env *environment) *cobra.Command {
	var logo, flags string
	cmd := &cobra.Command{
		Use:   "copy-ranking-images [HOST]",
		Short: "Copy the contest logo and team flags to the ranking web server",
		Long: `Copy the logo and the team flags into ` + lifecycle.RankingDataDir + `, creating
the directories if needed. The logo is stored as logo<ext>; every .png file of
the flags directory is stored under flags/ with its own name (the team code).

The ranking web server runs on the main host, so HOST defaults to main and
selectors reaching a worker are rejected. The first failed copy stops the
command.

` + hostHelp,
		Example: `  cmsfleet copy-ranking-images --logo logo.png --flags flags/`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transfers, err := lifecycle.RankingImages(logo, flags)
			if err != nil {
				return err
			}
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			report, err := env.controller(topo).CopyRankingImages(cmd.Context(), transfers, hostArg(args, 0))
			if err != nil {
				return err
			}
			if err := finishReport(report); err != nil {
				return err
			}
			ux.Success(fmt.Sprintf("%d images copied to %s", len(transfers), lifecycle.RankingDataDir))
			return nil
		},
	}
	cmd.Flags().StringVar(&logo, "logo", "", "Contest logo image")
	cmd.Flags().StringVar(&flags, "flags", "", "Directory of team flags (<team>.png)")
	return cmd
}
