package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/libsync/internal/logger"
	"github.com/oshokin/libsync/internal/service/installer"
)

// statusCmd prints which libraries a run would install.
var statusCmd = &cobra.Command{
	Use:       "status [linux|windows]",
	Short:     "Show which libraries are up to date and which would be installed",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"linux", "windows"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logger.WithLevelContext(context.Background(), statusLogLevel(logger.Level()))

		status, err := installer.Check(ctx, buildOptions(args))
		if err != nil {
			return err
		}

		printStatus(cmd.OutOrStdout(), status)

		return nil
	},
}

// statusLogLevel keeps informational messages out of the status report.
// Debug output stays available when requested explicitly.
func statusLogLevel(current zapcore.Level) zapcore.Level {
	if current == zapcore.InfoLevel {
		return zapcore.WarnLevel
	}

	return current
}

// printStatus renders the dry-run result, one library per line in catalog order.
func printStatus(w io.Writer, status *installer.Status) {
	_, _ = fmt.Fprintf(w, "platform: %s\nmanifest: %s\n", status.Platform, status.ManifestFile)

	pending := make(map[string]struct{}, len(status.Pending))
	for _, entry := range status.Pending {
		pending[entry.Name] = struct{}{}
	}

	for _, entry := range status.Catalog {
		label := "up to date"
		if _, found := pending[entry.Name]; found {
			label = "install"
		}

		_, _ = fmt.Fprintf(w, "%-11s %s\t%s\n", label, entry.Name, entry.ID)
	}

	if len(status.Pending) == 0 {
		_, _ = fmt.Fprintln(w, "nothing to install")
	}
}
