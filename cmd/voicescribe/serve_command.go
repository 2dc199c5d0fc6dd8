package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicescribe/internal/logging"
	"voicescribe/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transcriptions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bindFlag != "" {
				cfg.Server.Bind = bindFlag
			}
			logger := ctx.ensureLogger()

			opts := []server.Option{server.WithLogger(logger)}
			store, err := ctx.openHistory(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			if store != nil {
				defer store.Close()
				opts = append(opts, server.WithRecorder(store))
			}

			srv := server.New(cfg, ctx.newTranscriber(cfg), opts...)
			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", srv.Addr())

			<-runCtx.Done()
			srv.Stop()
			logger.Info("api server stopped", logging.String("address", srv.Addr()))
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
