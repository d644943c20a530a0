package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

type downloadFlags struct {
	url      string
	length   int64
	adaptive bool
	cver     string
	itag     int
	out      string
	async    bool
	proxy    string
	retries  int
	headers  []string
	progress bool
}

func newDownloadCmd(a *app) *cobra.Command {
	f := &downloadFlags{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a media format into a file or stdout",
		Long: `Download a media format into a file or stdout.

Failed attempts are retried from the first byte. A file is truncated before
each retry. Stdout (--out -) cannot be rewound, so once bytes have been
written a failure ends the download without further retries.`,
		Example: `  yt-fetch download --url "https://host/videoplayback?id=1" --length 5000000 --adaptive --cver 2.20220918 --out video.mp4
  yt-fetch download --url "https://host/videoplayback?id=1" --out - > video.mp4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.download(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "Format source URL")
	cmd.Flags().Int64Var(&f.length, "length", -1, "Content length in bytes, unknown when negative")
	cmd.Flags().BoolVar(&f.adaptive, "adaptive", false, "Fetch in ranged parts (needs --length)")
	cmd.Flags().StringVar(&f.cver, "cver", "", "Client version sent with part requests")
	cmd.Flags().IntVar(&f.itag, "itag", 0, "Format itag, recorded in the journal")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file, - for stdout (not retried after the first byte)")
	cmd.Flags().BoolVar(&f.async, "async", false, "Run on the worker pool and wait for the result")
	cmd.Flags().StringVar(&f.proxy, "proxy", "", "Proxy host:port for this request")
	cmd.Flags().IntVar(&f.retries, "retries", -1, "Retry budget, configured value when negative")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header as key=value, repeatable")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "Print progress percentages to stderr")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) download(cmd *cobra.Command, f *downloadFlags) error {
	h, err := parseHeaders(f.headers)
	if err != nil {
		return err
	}
	opts, err := requestOptions(h, f.proxy, f.retries)
	if err != nil {
		return err
	}
	if f.async {
		opts.Mode = domain.ModeAsync
	}

	format := &domain.Format{
		URL:           f.url,
		Adaptive:      f.adaptive,
		ClientVersion: f.cver,
		Itag:          f.itag,
	}
	if f.length >= 0 {
		format.ContentLength = domain.Int64(f.length)
	}

	stderr := cmd.ErrOrStderr()
	cb := domain.ProgressFuncs[struct{}]{}
	if f.progress {
		cb.Downloading = func(pct int) {
			fmt.Fprintf(stderr, "\r%3d%%", pct)
			if pct == 100 {
				fmt.Fprintln(stderr)
			}
		}
	}

	ctx := cmd.Context()
	var resp interface {
		Done() <-chan struct{}
		Err() error
		Attempts() int
		Cancel()
	}
	if f.out == "-" {
		resp = a.downloader.DownloadStream(ctx, &domain.StreamRequest{
			RequestOptions: opts,
			Format:         format,
			Output:         nopWriteCloser{cmd.OutOrStdout()},
			Callback:       cb,
		})
	} else {
		resp = a.downloader.DownloadFile(ctx, &domain.FileRequest{
			RequestOptions: opts,
			Format:         format,
			OutputPath:     f.out,
			Callback: domain.ProgressFuncs[string]{
				Downloading: cb.Downloading,
			},
		})
	}

	select {
	case <-resp.Done():
	case <-ctx.Done():
		resp.Cancel()
		<-resp.Done()
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("download failed after %d attempt(s): %w", resp.Attempts(), err)
	}

	if f.out != "-" {
		if info, err := os.Stat(f.out); err == nil {
			a.logger.Info("download finished",
				zap.String("path", f.out),
				zap.Int64("bytes", info.Size()),
				zap.Int("attempts", resp.Attempts()))
		}
	}
	return nil
}

// nopWriteCloser keeps stdout open when the stream sink is closed
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
