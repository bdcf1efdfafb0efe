package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-intent-router/internal/config"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
	"github.com/amirbrooks/tasker-intent-router/internal/suggest"
)

func newSayCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "say <text...>",
		Short: "Run one free-text command",
		Example: `  tasker say add buy groceries
  tasker say "done 3"
  tasker say show everything`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()
			res, err := a.assistant().HandleCommand(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if env.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return nil
		},
	}
}

func newDataCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "data",
		Short: "Show collection counts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			snap := a.store.LoadAll(cmd.Context())
			if env.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			open := 0
			for _, t := range snap.Tasks {
				if !t.Completed() {
					open++
				}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLLECTION\tCOUNT")
			fmt.Fprintf(w, "ideas\t%d\n", len(snap.Ideas))
			fmt.Fprintf(w, "projects\t%d\n", len(snap.Projects))
			fmt.Fprintf(w, "tasks\t%d\n", len(snap.Tasks))
			fmt.Fprintf(w, "  open\t%d\n", open)
			fmt.Fprintf(w, "  inbox\t%d\n", len(snap.InboxTasks()))
			return w.Flush()
		},
	}
}

func newSuggestCmd(env *appEnv) *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "suggest <task-text...>",
		Short: "Suggest a project for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return usageErr("suggest: task text is required")
			}
			a, err := env.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()
			s := a.suggester().Suggest(cmd.Context(), taskID, text, a.store.LoadProjects(cmd.Context()))
			if env.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			printSuggestions(cmd.OutOrStdout(), []suggest.Suggestion{s}, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "id", "", "Task id to report with the suggestion")
	return cmd
}

func newCategorizeCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize-inbox",
		Short: "Suggest a project for every inbox task",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()
			snap := a.store.LoadAll(cmd.Context())
			out := a.suggester().CategorizeInbox(cmd.Context(), snap)
			if env.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"suggestions": out})
			}
			if len(out) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Inbox is empty.")
				return nil
			}
			texts := map[string]string{}
			for _, t := range snap.Tasks {
				texts[t.ID] = t.Text
			}
			printSuggestions(cmd.OutOrStdout(), out, texts)
			return nil
		},
	}
}

func printSuggestions(w io.Writer, out []suggest.Suggestion, texts map[string]string) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tPROJECT\tCONFIDENCE\tREASON")
	for _, s := range out {
		task := s.TaskID
		if t, ok := texts[s.TaskID]; ok {
			task = t
		}
		if task == "" {
			task = "-"
		}
		project := "-"
		if s.SuggestedProjectID != nil {
			project = s.ProjectName
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\n", task, project, s.Confidence*100, s.Reasoning)
	}
	_ = tw.Flush()
}

func newConfigCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show or change settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := env.loadConfig()
			if err != nil {
				return err
			}
			_, statErr := os.Stat(store.ExpandHome(path))
			if env.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"config_path": path,
					"exists":      statErr == nil,
					"config":      cfg,
				})
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE")
			fmt.Fprintf(w, "config_path\t%s\n", path)
			fmt.Fprintf(w, "exists\t%t\n", statErr == nil)
			fmt.Fprintf(w, "root\t%s\n", cfg.Root)
			fmt.Fprintf(w, "store.backend\t%s\n", cfg.Store.Backend)
			fmt.Fprintf(w, "gateway.provider\t%s\n", cfg.Gateway.Provider)
			fmt.Fprintf(w, "gateway.model\t%s\n", cfg.Gateway.Model)
			fmt.Fprintf(w, "gateway.api_key\t%s\n", maskKey(cfg.Gateway.APIKey))
			fmt.Fprintf(w, "gateway.timeout\t%s\n", cfg.Gateway.Timeout)
			fmt.Fprintf(w, "router.variant\t%s\n", cfg.Router.Variant)
			fmt.Fprintf(w, "server.addr\t%s\n", cfg.Server.Addr)
			fmt.Fprintf(w, "log.level\t%s\n", cfg.Log.Level)
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one key in the config file",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErr("Usage: tasker config set <key> <value>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := env.configPath()
			// Only the file's own values are written back, not env overrides.
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &exitError{code: ExitUsage, err: err}
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], path)
			return nil
		},
	})
	return cmd
}

func maskKey(k string) string {
	if k == "" {
		return "(not set)"
	}
	if len(k) <= 8 {
		return "****"
	}
	return k[:4] + "…" + k[len(k)-4:]
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErr("%s takes no arguments", cmd.Name())
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
