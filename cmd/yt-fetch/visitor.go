package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVisitorDataCmd(a *app) *cobra.Command {
	var (
		proxy   string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "visitor-data <video-id>",
		Short: "Request visitor data for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := requestOptions(nil, proxy, retries)
			if err != nil {
				return err
			}
			data, err := a.visitor.VisitorData(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), data)
			return err
		},
	}

	cmd.Flags().StringVar(&proxy, "proxy", "", "Proxy host:port for this request")
	cmd.Flags().IntVar(&retries, "retries", -1, "Retry budget, configured value when negative")
	return cmd
}
