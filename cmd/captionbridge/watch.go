package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/captionbridge/captionwatch"
)

type watchOptions struct {
	config    string
	remote    string
	url       string
	match     string
	endpoint  string
	interval  time.Duration
	headless  bool
	stdout    bool
	mutOnly   bool
	lockFile  string
	container string
	segment   string
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	return (&watchOptions{}).command(root)
}

func (o *watchOptions) command(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Attach to a video page and forward its captions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return captionwatch.New(cfg, root.logger()).Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "YAML configuration file")
	f.StringVar(&o.remote, "remote", "", "DevTools URL of a running Chrome (ws:// or http://host:port)")
	f.StringVar(&o.url, "url", "", "open this URL in a new tab instead of attaching to an existing page")
	f.StringVar(&o.match, "match", "", "URL pattern of the page to attach to (default https://www.youtube.com/*)")
	f.StringVar(&o.endpoint, "endpoint", "", "consumer URL (default http://127.0.0.1:8765/caption)")
	f.DurationVar(&o.interval, "interval", 0, "watchdog interval (default 1s)")
	f.BoolVar(&o.headless, "headless", false, "launch the local Chrome headless")
	f.BoolVar(&o.stdout, "stdout", false, "also print every forwarded caption")
	f.BoolVar(&o.mutOnly, "mutation-only", false, "do not forward the caption already visible when attaching")
	f.StringVar(&o.lockFile, "lock-file", "", "single-instance lock file")
	f.StringVar(&o.container, "container", "", "caption container selector")
	f.StringVar(&o.segment, "segment", "", "caption segment selector")

	return cmd
}

// load reads the config file, if any, then applies explicitly set flags.
func (o *watchOptions) load(cmd *cobra.Command) (*captionwatch.Config, error) {
	cfg := captionwatch.DefaultConfig()
	if o.config != "" {
		var err error
		cfg, err = captionwatch.LoadConfigFile(o.config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("remote") {
		cfg.Browser.Remote = o.remote
	}
	if f.Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if f.Changed("url") {
		cfg.Page.URL = o.url
	}
	if f.Changed("match") {
		cfg.Page.Match = o.match
	}
	if f.Changed("endpoint") {
		cfg.Endpoint.URL = o.endpoint
	}
	if f.Changed("stdout") {
		cfg.Endpoint.Stdout = o.stdout
	}
	if f.Changed("interval") {
		cfg.Watchdog.Interval = o.interval
	}
	if f.Changed("mutation-only") {
		cfg.Watchdog.MutationOnly = o.mutOnly
	}
	if f.Changed("lock-file") {
		cfg.LockFile = o.lockFile
	}
	if f.Changed("container") {
		cfg.Caption.Container = o.container
	}
	if f.Changed("segment") {
		cfg.Caption.Segment = o.segment
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
