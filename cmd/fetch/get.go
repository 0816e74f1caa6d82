package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/f0zi/fetch"
	"github.com/f0zi/fetch/host/nethost"
	"github.com/f0zi/fetch/internal/obs"
)

type getOptions struct {
	method       string
	headers      []string
	data         string
	include      bool
	priority     int
	queueTimeout time.Duration
	timeout      time.Duration
	repeat       int
}

func newGetCmd(ro *rootOptions) *cobra.Command {
	o := &getOptions{}
	cmd := &cobra.Command{
		Use:   "get [flags] URL...",
		Short: "Fetch one or more URLs concurrently through one client",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, ro, o, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.method, "request", "X", "GET", "request method")
	f.StringArrayVarP(&o.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	f.StringVarP(&o.data, "data", "d", "", "request body")
	f.BoolVarP(&o.include, "include", "i", false, "print status line and response headers")
	f.IntVar(&o.priority, "priority", 0, "queue priority when the pool is full")
	f.DurationVar(&o.queueTimeout, "queue-timeout", 0, "give up waiting for a socket after this long")
	f.DurationVar(&o.timeout, "timeout", 0, "overall deadline for all requests")
	f.IntVarP(&o.repeat, "repeat", "n", 1, "issue each URL this many times")
	return cmd
}

func runGet(cmd *cobra.Command, ro *rootOptions, o *getOptions, urls []string) error {
	cfg, err := ro.load(cmd)
	if err != nil {
		return err
	}
	zl, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := obs.NewZapLogger(zl)

	h := nethost.New(nethost.Options{
		DialTimeout:      cfg.Net.DialTimeout,
		ReadTimeout:      cfg.Net.ReadTimeout,
		WriteTimeout:     cfg.Net.WriteTimeout,
		MaxResponseBytes: cfg.Net.MaxResponseBytes,
		Logger:           logger,
	})
	defer h.Close()
	client := fetch.NewClient(h, fetch.Config{
		MaxOutstanding:  cfg.Client.MaxOutstanding,
		MaxDeferred:     cfg.Client.MaxDeferred,
		DisablePooling:  cfg.Client.DisablePooling,
		RequestIDHeader: cfg.Client.RequestIDHeader,
		Logger:          logger,
	})

	ctx := cmd.Context()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		for i := 0; i < o.repeat; i++ {
			u := u
			g.Go(func() error {
				ri, err := o.requestInit()
				if err != nil {
					return err
				}
				resp, err := client.Fetch(u, ri).Await(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", u, err)
				}
				text, err := resp.Text()
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				return printResponse(out, resp, text, o.include)
			})
		}
	}
	return g.Wait()
}

func (o *getOptions) requestInit() (*fetch.RequestInit, error) {
	hdr := &fetch.Header{}
	for _, line := range o.headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("bad header %q, want \"Name: value\"", line)
		}
		if err := hdr.Append(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	if !hdr.Has("connection") {
		_ = hdr.Set("connection", "close")
	}
	ri := &fetch.RequestInit{
		Method:   o.method,
		Header:   hdr,
		Priority: o.priority,
		Timeout:  o.queueTimeout,
	}
	if o.data != "" {
		ri.Body = o.data
	}
	return ri, nil
}

func printResponse(w io.Writer, resp *fetch.Response, body string, include bool) error {
	if include {
		if _, err := fmt.Fprintf(w, "%d %s\n%s\n", resp.Status, resp.StatusText, resp.Header); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, body)
	if err == nil && !strings.HasSuffix(body, "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
