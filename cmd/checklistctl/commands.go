package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/config"
	"github.com/phrazzld/checklist-api/internal/markdown"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/platform/yamlstore"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/service/auth"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/workflow"
	"github.com/spf13/cobra"
)

// globalFlags holds the flags shared by every command.
type globalFlags struct {
	dir      string
	user     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "checklistctl",
		Short:         "Work with checklist documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.dir, "dir", "data", "Document directory of the file store")
	pf.StringVar(&flags.user, "user", os.Getenv("USER"), "Author recorded on remarks written by this tool")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(
		newListCmd(&flags),
		newImportCmd(&flags),
		newExportCmd(&flags),
		newVerifyCmd(&flags),
		newThreadCmd(&flags),
		newTokenCmd(&flags),
	)
	return root
}

// workspace is a checklist service over the file store. Its scheduler is
// never started: work queued here is picked up by a server watching the
// directory, or by the next server start.
type workspace struct {
	service   service.ChecklistService
	scheduler *task.Scheduler
}

func openWorkspace(cmd *cobra.Command, flags *globalFlags) (*workspace, error) {
	log := newLogger(cmd, flags)

	files, err := yamlstore.New(flags.dir, log)
	if err != nil {
		return nil, codeError(3, "opening document directory: %s", err)
	}

	repo, err := service.NewRepository(files, nil, workflow.DefaultPolicy(), log)
	if err != nil {
		return nil, err
	}

	scheduler := task.NewScheduler(repo, nil, nil, task.DefaultSchedulerConfig(), log)
	svc, err := service.NewChecklistService(repo, scheduler, service.StaticIdentity(flags.user), nil, log)
	if err != nil {
		return nil, err
	}
	return &workspace{service: svc, scheduler: scheduler}, nil
}

func newLogger(cmd *cobra.Command, flags *globalFlags) *slog.Logger {
	return logger.SetupWithWriter(cmd.ErrOrStderr(), flags.logLevel)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, codeError(3, "invalid %s id %q", kind, raw)
	}
	return id, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", codeError(3, "reading %s: %s", path, err)
	}
	return string(data), nil
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the checklists in the document directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, flags)
			if err != nil {
				return err
			}
			checklists, err := ws.service.ListChecklists(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing checklists: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(checklists) == 0 {
				fmt.Fprintln(out, "No checklists found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tOPEN\tTASKS")
			for _, c := range checklists {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.ID, c.Name, len(c.IncompleteTasks()), len(c.Tasks))
			}
			return tw.Flush()
		},
	}
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a markdown checklist into the document directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd, flags)
			if err != nil {
				return err
			}

			checklist, err := ws.service.ImportMarkdown(cmd.Context(), text)
			if err != nil {
				return codeError(2, "importing %s: %s", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %q as %s (%d tasks)\n", checklist.Name, checklist.ID, len(checklist.Tasks))
			if queued := len(ws.scheduler.Status().Queued); queued > 0 {
				fmt.Fprintf(out, "%d remark(s) queued; the server runs them when it next scans this directory\n", queued)
			}
			return nil
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <checklist-id>",
		Short: "Print a checklist as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("checklist", args[0])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd, flags)
			if err != nil {
				return err
			}

			text, err := ws.service.ExportMarkdown(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", id, err)
			}

			if outPath == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Write the markdown to this file instead of stdout")
	return cmd
}

func newVerifyCmd(flags *globalFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "verify <file|->",
		Short: "Check that a markdown checklist is in canonical form",
		Long: "Decodes the checklist and encodes it again. A file that would change " +
			"is reported with a diff-match-patch patch and exit code 2.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			result, err := markdown.Verify(text, markdown.DecodeOptions{Logger: newLogger(cmd, flags)})
			if err != nil {
				return codeError(2, "%s: %s", args[0], err)
			}

			out := cmd.OutOrStdout()
			if result.IsCanonical() {
				fmt.Fprintln(out, "canonical")
				return nil
			}

			if write && args[0] != "-" {
				if err := os.WriteFile(args[0], []byte(result.Canonical), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", args[0], err)
				}
				fmt.Fprintf(out, "rewrote %s\n", args[0])
				return nil
			}

			fmt.Fprint(out, result.Patch)
			return codeError(2, "%s is not in canonical form", args[0])
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Rewrite the file in canonical form instead of reporting")
	return cmd
}

func newThreadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "thread <checklist-id> <task-id>",
		Short: "Print the remark thread of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			checklistID, err := parseID("checklist", args[0])
			if err != nil {
				return err
			}
			taskID, err := parseID("task", args[1])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd, flags)
			if err != nil {
				return err
			}

			entries, err := ws.service.Thread(cmd.Context(), checklistID, taskID)
			if err != nil {
				return fmt.Errorf("reading thread: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s- %s (by %s, %s)\n",
					strings.Repeat("  ", e.Depth),
					e.Text,
					e.Remark.Author,
					e.Remark.Timestamp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Mint an API access token",
		Long:  "Signs an access token with the server's JWT secret. The subject defaults to --user.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := flags.user
			if len(args) == 1 {
				subject = args[0]
			}

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return codeError(3, "%s", err)
			}
			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return codeError(3, "%s", err)
			}

			token, err := jwtService.GenerateToken(cmd.Context(), subject)
			if err != nil {
				return fmt.Errorf("minting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the server config file (default: ./config.yaml if present)")
	return cmd
}
