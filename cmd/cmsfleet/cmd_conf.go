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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jinterlante1206/cmsfleet/cmd/cmsfleet/config"
	"github.com/jinterlante1206/cmsfleet/pkg/cmsconf"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/jinterlante1206/cmsfleet/pkg/validation"
	"github.com/spf13/cobra"
)

// watchDebounce is how long render-conf --watch waits for a burst of
// writes to settle.
const watchDebounce = 300 * time.Millisecond

func newInitConfCmd(env *environment) *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init-conf",
		Short: "Generate a commented topology file with a fresh secret key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteSample(path, force)
			if err != nil {
				return err
			}
			env.logger.Info("topology file generated", "path", written)
			ux.Success(fmt.Sprintf("%s generated, edit it to describe your hosts", written))
			ux.Box("Next steps", fmt.Sprintf(
				"cmsfleet --conf %s hosts\ncmsfleet --conf %s copy-conf\ncmsfleet --conf %s restart resource-service",
				written, written, written))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", config.DefaultPath, "Where to write the topology file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// templateFlags are shared by the commands that build the CMS configuration.
type templateFlags struct {
	template string
	layout   string
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.template, "template", "",
		"Base CMS configuration (.toml, .conf/.json or .yaml); default: the built-in CMS sample")
	cmd.Flags().StringVar(&f.layout, "layout", "",
		"Where values are written: current (cms.toml) or legacy (cms.conf); default: from the template format")
}

// render loads the template and builds the configuration for topo.
func (f *templateFlags) render(env *environment, topo *topology.Topology) ([]byte, cmsconf.Format, error) {
	layout, err := cmsconf.ParseLayout(f.layout)
	if err != nil {
		return nil, "", err
	}
	tmpl, err := cmsconf.LoadTemplate(f.template)
	if err != nil {
		return nil, "", err
	}
	data, err := cmsconf.Render(tmpl, topo, layout)
	if err != nil {
		return nil, "", err
	}
	env.logger.Debug("configuration rendered", "template", tmpl.Source, "format", string(tmpl.Format))
	return data, tmpl.Format, nil
}

func newRenderConfCmd(env *environment) *cobra.Command {
	var (
		tf     templateFlags
		output string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "render-conf",
		Short: "Print or write the CMS configuration generated from the topology",
		Long: `Build the CMS configuration for the cluster: the service map, database URL,
secret key, rankings and web server listen addresses are derived from the
topology and written into the template. Every other template value is kept.

With --watch, the configuration is written again whenever the topology or the
template changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && output == "" {
				return errors.New("--watch needs --output")
			}
			if err := renderTo(env, &tf, output); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRender(cmd.Context(), env, &tf, output)
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-render when the topology or template changes")
	return cmd
}

func renderTo(env *environment, tf *templateFlags, output string) error {
	topo, err := env.loadTopology()
	if err != nil {
		return err
	}
	data, _, err := tf.render(env, topo)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := ux.Output().Write(data)
		return err
	}
	// The configuration holds the database password and the secret key.
	if err := os.WriteFile(output, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	ux.Success("configuration written to " + output)
	return nil
}

func watchAndRender(ctx context.Context, env *environment, tf *templateFlags, output string) error {
	paths := []string{env.confPath()}
	if tf.template != "" {
		paths = append(paths, tf.template)
	}
	watcher, err := cmsconf.NewFileWatcher(paths, &cmsconf.WatcherOptions{
		DebounceWindow: watchDebounce,
		Logger:         env.logger,
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	ux.Info("watching for changes, press Ctrl+C to stop")
	return watcher.Run(ctx, func(changed []string) {
		env.logger.Info("inputs changed", "files", changed)
		if err := renderTo(env, tf, output); err != nil {
			env.logger.Warn("render failed", "error", err.Error())
			ux.Error(err.Error())
		}
	})
}

func newCopyConfCmd(env *environment) *cobra.Command {
	var tf templateFlags
	cmd := &cobra.Command{
		Use:   "copy-conf [HOST]",
		Short: "Generate the CMS configuration and copy it to the host(s)",
		Long: `Generate the CMS configuration (see render-conf) and copy it to every
selected host. The destination is conf_path from the topology if set, else
<cms_dir>/etc/cms.toml (cms.conf for JSON templates), else /usr/local/etc.
The remote user needs write permission there.

The first failed copy stops the command.

` + hostHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := env.loadTopology()
			if err != nil {
				return err
			}
			data, format, err := tf.render(env, topo)
			if err != nil {
				return err
			}
			remote := cmsconf.RemotePath(topo, format)
			if err := validation.ValidateRemotePath(remote); err != nil {
				return err
			}

			tmp, err := os.CreateTemp("", "cmsfleet-*-"+format.FileName())
			if err != nil {
				return fmt.Errorf("create temporary file: %w", err)
			}
			defer os.Remove(tmp.Name())
			if _, err := tmp.Write(data); err != nil {
				tmp.Close()
				return fmt.Errorf("write temporary file: %w", err)
			}
			if err := tmp.Close(); err != nil {
				return fmt.Errorf("write temporary file: %w", err)
			}

			report, err := env.controller(topo).Distribute(cmd.Context(), tmp.Name(), remote, hostArg(args, 0))
			if err != nil {
				return err
			}
			if err := finishReport(report); err != nil {
				return err
			}
			ux.Success(fmt.Sprintf("configuration copied to %s", remote))
			return nil
		},
	}
	tf.register(cmd)
	return cmd
}
