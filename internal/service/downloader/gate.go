package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// invoke runs op inline for ModeSync, or submits it to the executor for
// ModeAsync. abort is called instead of op when op can never run; it must
// release the sink and notify the callback.
func invoke[T any](ctx context.Context, d *Downloader, mode domain.Mode, abort func(error), op func(context.Context) domain.Outcome[T]) *Response[T] {
	if mode != domain.ModeAsync {
		return completedResponse(op(ctx))
	}

	if d.executor == nil {
		err := domain.Fatal(domain.ErrNoExecutor)
		abort(err)
		return completedResponse(domain.Outcome[T]{Err: err})
	}

	ctx, cancel := context.WithCancel(ctx)
	resp := newResponse[T](cancel)
	started := make(chan struct{})

	future := d.executor.Submit(func() error {
		close(started)
		out := op(ctx)
		resp.complete(out)
		return out.Err
	})

	// A rejected task never starts and its future fails on its own. A task
	// that panicked started but never completed resp.
	go func() {
		err := future.Wait()
		select {
		case <-started:
			// op completes resp itself unless it panicked
			if err == nil {
				err = errors.New("task ended without a result")
			}
			resp.complete(domain.Outcome[T]{Err: domain.Fatal(fmt.Errorf("%s task: %w", mode, err))})
			return
		default:
		}
		if err == nil {
			err = errors.New("task was not run")
		}
		err = domain.Fatal(fmt.Errorf("submit %s task: %w", mode, err))
		d.logger.Error("executor rejected download", zap.Error(err))
		abort(err)
		resp.complete(domain.Outcome[T]{Err: err})
	}()

	return resp
}

// reject fails a call whose request did not validate
func reject[T any](d *Downloader, cb domain.Callback[T], sink io.Closer, err error) *Response[T] {
	err = domain.Fatal(err)
	d.logger.Warn("rejected invalid request", zap.Error(err))
	closeQuietly(d.logger, sink)
	notifyError(cb, err)
	return completedResponse(domain.Outcome[T]{Err: err})
}
