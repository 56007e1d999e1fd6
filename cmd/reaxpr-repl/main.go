// Command reaxpr-repl is a small command-line front end over the
// expression engine and reactive scope: evaluate an expression once, or
// watch one against a YAML-seeded scope and print every value it takes
// on.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pumped-fn/reaxpr"
	"github.com/pumped-fn/reaxpr/value"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reaxpr-repl",
		Short:         "Evaluate and watch expressions against a reactive scope",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEvalCmd(), newWatchCmd())
	return root
}

func newEvalCmd() *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "eval <expr>",
		Short: "Evaluate an expression once against a fresh scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := reaxpr.New()
			if seedPath != "" {
				if err := seedScope(s, seedPath); err != nil {
					return err
				}
			}
			result, err := s.Eval(args[0], value.Null)
			if err != nil {
				return reaxpr.WrapError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML file whose top-level mapping seeds the scope's attributes")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var seedPath, filePath string
	cmd := &cobra.Command{
		Use:   "watch <expr>",
		Short: "Watch an expression and print every value it takes on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := reaxpr.New()
			seed := seedPath
			if seed == "" {
				seed = filePath
			}
			if seed != "" {
				if err := seedScope(s, seed); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			destroy, err := s.Watch(args[0], func(newVal, oldVal value.Value, _ *reaxpr.Scope) error {
				fmt.Fprintln(out, newVal.String())
				return nil
			}, true)
			if err != nil {
				return reaxpr.WrapError(err)
			}
			defer destroy()

			if err := s.Digest(); err != nil {
				return err
			}

			if filePath == "" {
				return nil
			}
			return watchFile(cmd, s, filePath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML file whose top-level mapping seeds the scope's attributes once")
	cmd.Flags().StringVar(&filePath, "file", "", "YAML file to seed from and re-apply on every write (fsnotify-driven)")
	return cmd
}

// seedScope decodes path's top-level YAML mapping and assigns each key onto
// s's own attribute mapping.
func seedScope(s *reaxpr.Scope, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reaxpr-repl: reading seed file: %w", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("reaxpr-repl: parsing seed YAML: %w", err)
	}
	for k, v := range decoded {
		vv, err := fromYAML(v)
		if err != nil {
			return err
		}
		s.Set(k, vv)
	}
	return nil
}

// watchFile re-seeds s and runs Apply whenever path is written, for the
// lifetime of the process or until SIGINT/SIGTERM.
func watchFile(cmd *cobra.Command, s *reaxpr.Scope, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("reaxpr-repl: creating file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return fmt.Errorf("reaxpr-repl: watching %s: %w", path, err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			_, err := s.Apply(func(sc *reaxpr.Scope) (value.Value, error) {
				return value.Null, seedScope(sc, path)
			})
			if err != nil {
				slog.Error("reapplying seed file failed", "path", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("file watcher error", "error", err)
		case <-sig:
			_ = cmd
			return nil
		}
	}
}
