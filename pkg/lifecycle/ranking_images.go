// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/kballard/go-shellquote"
)

// RankingDataDir is the ranking web server's data directory. The logo
// lives at its root and team flags under flags/.
const RankingDataDir = "/var/local/lib/cms/ranking"

// Transfer is one local file and its destination on the remote host.
type Transfer struct {
	Source      string
	Destination string
}

// RankingImages lists the transfers that place a logo and the team flags
// in the ranking data directory.
//
// # Description
//
// The logo is copied as logo<ext> (e.g. logo.png). Every *.png file of
// flagsDir is copied under flags/ with its own name, which the ranking
// server matches against the team code. Either input may be empty, not
// both.
//
// # Outputs
//
//   - []Transfer: Logo first, then flags sorted by name
//   - error: Missing inputs, or a flags directory with no .png file
func RankingImages(logo, flagsDir string) ([]Transfer, error) {
	if logo == "" && flagsDir == "" {
		return nil, errors.New("nothing to copy: give a logo, a flags directory, or both")
	}

	var transfers []Transfer
	if logo != "" {
		info, err := os.Stat(logo)
		if err != nil {
			return nil, fmt.Errorf("logo: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("logo %s is a directory", logo)
		}
		transfers = append(transfers, Transfer{
			Source:      logo,
			Destination: path.Join(RankingDataDir, "logo"+strings.ToLower(filepath.Ext(logo))),
		})
	}

	if flagsDir != "" {
		info, err := os.Stat(flagsDir)
		if err != nil {
			return nil, fmt.Errorf("flags directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("flags directory %s is not a directory", flagsDir)
		}
		flags, err := filepath.Glob(filepath.Join(flagsDir, "*.png"))
		if err != nil {
			return nil, fmt.Errorf("flags directory: %w", err)
		}
		if len(flags) == 0 {
			return nil, fmt.Errorf("flags directory %s has no .png files", flagsDir)
		}
		sort.Strings(flags)
		for _, flag := range flags {
			transfers = append(transfers, Transfer{
				Source:      flag,
				Destination: path.Join(RankingDataDir, "flags", filepath.Base(flag)),
			})
		}
	}
	return transfers, nil
}

// CopyRankingImages creates the ranking data directories and copies
// transfers to every selected host.
//
// The selector follows the ranking service: main by default, workers
// rejected. Like Distribute, the first failure stops the batch and the
// Report holds the steps attempted so far.
func (c *Controller) CopyRankingImages(ctx context.Context, transfers []Transfer, selector string) (*Report, error) {
	if len(transfers) == 0 {
		return nil, errors.New("no images to copy")
	}
	hosts, err := c.Targets(Ranking.Name, selector)
	if err != nil {
		return nil, err
	}

	mkdir := shellquote.Join("mkdir", "-p", RankingDataDir, path.Join(RankingDataDir, "flags"))
	report := &Report{}
	for _, host := range hosts {
		c.announce(host)
		code, err := c.gw.Run(ctx, host, mkdir)
		report.Results = append(report.Results, HostResult{Host: host, Command: mkdir, ExitCode: code, Err: err})
		if err != nil {
			c.logger.Error("ranking images aborted", "host", host.Name, "error", err.Error())
			return report, err
		}
		if err := c.copyAll(ctx, host, transfers, report); err != nil {
			c.logger.Error("ranking images aborted", "host", host.Name, "error", err.Error())
			return report, err
		}
	}
	c.logger.Info("ranking images copied", "hosts", len(hosts), "files", len(transfers))
	return report, nil
}

func (c *Controller) copyAll(ctx context.Context, host topology.Host, transfers []Transfer, report *Report) error {
	for _, tr := range transfers {
		err := c.gw.Copy(ctx, host, tr.Source, tr.Destination)
		report.Results = append(report.Results, HostResult{Host: host, Command: "copy " + tr.Destination, Err: err})
		if err != nil {
			return err
		}
	}
	return nil
}
