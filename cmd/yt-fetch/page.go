package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

func newPageCmd(a *app) *cobra.Command {
	var (
		method  string
		body    string
		headers []string
		proxy   string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "page <url>",
		Short: "Fetch a text resource and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			opts, err := requestOptions(h, proxy, retries)
			if err != nil {
				return err
			}

			resp := a.downloader.DownloadWebpage(cmd.Context(), &domain.WebpageRequest{
				RequestOptions: opts,
				URL:            args[0],
				Method:         method,
				Body:           body,
			})
			text, err := resp.Data()
			if err != nil {
				return fmt.Errorf("fetch failed after %d attempt(s): %w", resp.Attempts(), err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method, GET or POST")
	cmd.Flags().StringVarP(&body, "body", "d", "", "JSON body sent with POST")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header as key=value, repeatable")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Proxy host:port for this request")
	cmd.Flags().IntVar(&retries, "retries", -1, "Retry budget, configured value when negative")
	return cmd
}

// parseHeaders turns key=value pairs into a header map
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
