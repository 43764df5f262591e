package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/livedoc/internal/audit"
	"github.com/ziadkadry99/livedoc/internal/db"
	"github.com/ziadkadry99/livedoc/internal/export"
	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/progress"
	"github.com/ziadkadry99/livedoc/internal/schema"
	"github.com/ziadkadry99/livedoc/internal/session"
	"github.com/ziadkadry99/livedoc/internal/transcript"
)

var (
	replayChunkWords int
	replayFormat     string
)

var replayCmd = &cobra.Command{
	Use:   "replay <transcript-file>",
	Short: "Build a process document from a recorded transcript",
	Long: `Feeds a plain-text transcript through a local session in chunks of
--chunk-words words, exactly as live speech would arrive, then prints the
resulting document as json, markdown or html.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
		chunks := transcript.Chunks(string(text), replayChunkWords)
		if len(chunks) == 0 {
			return fmt.Errorf("transcript %s is empty", args[0])
		}

		database, err := db.Open(cfg.Audit.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		orch := newOrchestrator(cfg, provider, logger, audit.NewStore(database))

		sess := session.New("replay", session.Options{
			WindowSize:  cfg.WindowSize,
			HistorySize: cfg.HistorySize,
		})

		stats, err := replay(cmd.Context(), sess, orch, chunks, progress.NewReporter("Replaying transcript"))
		if err != nil {
			return err
		}
		logger.Info("replay finished",
			"chunks", len(chunks),
			"applied", stats.Applied,
			"rejected", stats.Rejected,
			"skipped", stats.Skipped,
			"revision", sess.Revision(),
		)

		return writeDocument(cmd.OutOrStdout(), sess.Document(), replayFormat)
	},
}

type replayStats struct {
	Applied  int
	Rejected int
	Skipped  int
}

// replay ingests chunks one cycle at a time. A patch that fails to apply
// counts as rejected; any other error stops the replay.
func replay(ctx context.Context, sess *session.Session, proc session.Processor, chunks []string, rep progress.Reporter) (replayStats, error) {
	var stats replayStats

	rep.Start(len(chunks))
	defer rep.Finish()

	for i, chunk := range chunks {
		res, err := sess.Ingest(ctx, chunk, proc)
		var applyErr *patch.ApplyError
		switch {
		case errors.As(err, &applyErr):
			stats.Rejected++
			rep.Update(i+1, fmt.Sprintf("chunk %d: apply failed", i+1))
			continue
		case err != nil:
			return stats, fmt.Errorf("chunk %d: %w", i+1, err)
		}

		switch res.Outcome {
		case session.Applied:
			stats.Applied++
		case session.Rejected:
			stats.Rejected++
		default:
			stats.Skipped++
		}
		rep.Update(i+1, fmt.Sprintf("chunk %d: %s", i+1, res.Outcome))
	}
	return stats, nil
}

func writeDocument(w io.Writer, doc patch.Document, format string) error {
	switch format {
	case "json":
		_, err := fmt.Fprintln(w, schema.Render(doc, schema.ViewAudit))
		return err
	case "markdown":
		_, err := io.WriteString(w, export.Markdown(doc))
		return err
	case "html":
		page, err := export.HTML(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use json, markdown or html)", format)
	}
}

func init() {
	replayCmd.Flags().IntVar(&replayChunkWords, "chunk-words", 40, "words per simulated speech chunk")
	replayCmd.Flags().StringVar(&replayFormat, "format", "json", "output format: json, markdown or html")
	rootCmd.AddCommand(replayCmd)
}
