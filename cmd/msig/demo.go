package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msig-dev/msig/internal/demo"
	"github.com/msig-dev/msig/pkg/reactive"
	"github.com/msig-dev/msig/pkg/resource"
)

func demoCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through signals, effects, memos, and resources",
		Long: `Run a short scripted session against a fresh runtime and print
what every effect observes.

Examples:
  msig demo
  msig demo --delay=500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()
			return runDemo(cmd.Context(), os.Stdout, delay)
		},
	}

	cmd.Flags().DurationVarP(&delay, "delay", "d", 50*time.Millisecond, "Simulated fetch latency")

	return cmd
}

func runDemo(ctx context.Context, w io.Writer, delay time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	say := func(format string, args ...any) {
		fmt.Fprintf(w, "  "+format+"\n", args...)
	}
	step := func(title string) {
		fmt.Fprintf(w, "\n\033[1m%s\033[0m\n", title)
	}

	var reported []error
	rt := reactive.NewRuntime(
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		reactive.WithMaxDepth(10),
		reactive.WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)
	stores := demo.New(rt)

	step("Signals and effects")
	reactive.CreateEffect(rt, func() {
		say("count=%d doubled=%d", stores.Count.Get(), stores.Doubled.Get())
	})
	stores.Increment()
	stores.Increment()
	stores.Decrement()
	stores.Count.Set(1)
	say("identical write to 1 re-ran nothing")

	step("Roots and disposal")
	reactive.CreateRoot(rt, func(dispose func()) struct{} {
		reactive.CreateEffect(rt, func() {
			say("input=%q shout=%q", stores.Input.Get(), stores.Shout.Get())
		})
		reactive.OnCleanup(rt, func() { say("root disposed") })
		stores.Input.Set("hello")
		dispose()
		return struct{}{}
	})
	stores.Input.Set("ignored")
	say("input is now %q, nobody is listening", stores.Input.Peek())

	step("Untrack")
	reactive.CreateEffect(rt, func() {
		n := stores.Count.Get()
		clock := reactive.Untrack(rt, stores.Clock.Get)
		say("count=%d clock=%d (clock untracked)", n, clock)
	})
	stores.Tick()
	say("ticked the clock, effect stayed quiet")

	step("Resources")
	greeting := resource.NewWithSource(rt, stores.Count, func(ctx context.Context, n int) (string, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if n < 0 {
			return "", stderrors.New("negative count")
		}
		return fmt.Sprintf("hello #%d", n), nil
	}).Named("greeting")
	reactive.CreateEffect(rt, func() {
		switch greeting.State() {
		case resource.Ready:
			say("greeting ready: %s", greeting.Get())
		case resource.Errored:
			say("greeting failed: %v", greeting.Error())
		default:
			say("greeting %s", greeting.State())
		}
	})

	// settle runs queued completions until the greeting is no longer pending.
	settle := func() error {
		ctx, cancel := context.WithTimeout(ctx, delay+5*time.Second)
		defer cancel()
		for greeting.State() == resource.Pending {
			if err := rt.Queue().Next(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	rt.Tick()
	if err := settle(); err != nil {
		return err
	}
	stores.Increment()
	if err := settle(); err != nil {
		return err
	}
	stores.Count.Set(-1)
	if err := settle(); err != nil {
		return err
	}

	step("Cascade bound")
	runaway := reactive.NewSignal(rt, 0)
	reactive.CreateEffect(rt, func() {
		runaway.Set(runaway.Get() + 1)
	})
	for _, err := range reported {
		say("reported: %v", err)
	}

	st := rt.Stats()
	fmt.Fprintln(w)
	success("Done: %d effects in %d scopes watching %d signals", st.Effects, st.Scopes, st.Cells)
	rt.Dispose()
	return nil
}
