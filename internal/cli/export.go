package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

func newExportCmd(env *appEnv) *cobra.Command {
	var format, dir string
	var toStdout bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all collections to <root>/exports",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "json" && format != "yaml" {
				return usageErr("export: invalid --format %q (use json|yaml)", format)
			}
			a, err := env.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			data, err := encodeSnapshot(a.store.LoadAll(cmd.Context()), format)
			if err != nil {
				return err
			}
			if toStdout {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if dir == "" {
				dir = filepath.Join(store.ExpandHome(a.cfg.Root), "exports")
			}
			path, err := writeExportFile(dir, "tasker", format, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote export to:", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json|yaml")
	cmd.Flags().StringVar(&dir, "export-dir", "", "Override export directory (default: <root>/exports)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print instead of writing a file")
	return cmd
}

// encodeSnapshot renders the snapshot with the same camelCase keys in both
// formats; YAML goes through the JSON form so field names match.
func encodeSnapshot(snap store.Snapshot, format string) ([]byte, error) {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return append(b, '\n'), nil
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func writeExportFile(dir, base, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("export directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format("20060102-150405")
	name := fmt.Sprintf("%s-%s.%s", base, ts, ext)
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s-%s-%d.%s", base, ts, i, ext)
		path = filepath.Join(dir, name)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UTC().UnixNano()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
