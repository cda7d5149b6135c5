package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return foundationerrors.ConfigError("build journal is disabled; set journal.path").Build()
	}
	journal, err := eventstore.OpenJournal(cfg.Path(cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	builds, err := journal.History(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	return writeHistory(os.Stdout, builds)
}

func writeHistory(w io.Writer, builds []*eventstore.BuildSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tPIPELINE\tTRIGGER\tSTATUS\tDURATION\tDETAIL")
	for _, b := range builds {
		detail := b.ErrorMessage
		if b.ErrorStage != "" {
			detail = b.ErrorStage + ": " + detail
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			b.Pipeline,
			b.Trigger,
			b.Status,
			b.Duration.Round(time.Millisecond),
			detail)
	}
	return tw.Flush()
}
