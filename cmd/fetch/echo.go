package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/f0zi/fetch/internal/echo"
	"github.com/f0zi/fetch/internal/obs"
)

func newEchoCmd(ro *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Serve an HTTP/1.1 endpoint that echoes each request back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load(cmd)
			if err != nil {
				return err
			}
			zl, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			s := &echo.Server{Addr: addr, ReadTimeout: cfg.Net.ReadTimeout, Logger: obs.NewZapLogger(zl)}
			go func() {
				<-cmd.Context().Done()
				_ = s.Close()
			}()
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, echo.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
