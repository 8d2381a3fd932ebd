package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/stats_dashboard/ingest"
	"github.com/pivolan/stats_dashboard/store"
)

const (
	graphPrefix   = "graph_"
	detailsPrefix = "details_"
)

const welcomeText = `Hi! I analyse tabular data and build statistical reports.

What I can do:
- Analyse CSV, TSV and XLSX files, also inside zip, gzip or lz4 archives
- Analyse a sequence of numbers, just send them in a message
- Describe every column: counts, mean, std, quartiles, value frequencies
- Compute skewness, kurtosis, coefficient of variation and correlations
- Draw pie charts, bar charts and histograms

Commands:
/sample <name> - analyse a built-in dataset (%s)
/query <sql> - run a SELECT over your last dataset, e.g. /query SELECT Region, sum(Sales) FROM dataset GROUP BY Region
/details_<column> - statistics of one column
/graph_<column> - chart of one column

Examples of numbers:
- "1 2 3 4 5"
- "1,2,3,4,5"`

func (b *telegramBot) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch {
	case command == "start" || command == "help":
		b.reply(chatID, fmt.Sprintf(welcomeText, strings.Join(ingest.SampleNames(), ", ")))
	case command == "sample":
		b.handleSample(chatID, args)
	case command == "query":
		b.handleQuery(chatID, args)
	case strings.HasPrefix(command, graphPrefix):
		b.handleGraphColumn(chatID, strings.TrimPrefix(command, graphPrefix))
	case strings.HasPrefix(command, detailsPrefix):
		b.handleColumnDetails(chatID, strings.TrimPrefix(command, detailsPrefix))
	default:
		b.reply(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *telegramBot) handleSample(chatID int64, name string) {
	if name == "" {
		name = "sales"
	}
	ds, err := ingest.Sample(name)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Unknown sample %q. Available: %s", name, strings.Join(ingest.SampleNames(), ", ")))
		return
	}
	s, err := b.dash.addDataset(context.Background(), name, ds)
	if err != nil {
		b.reply(chatID, "Could not analyse the sample: "+err.Error())
		return
	}
	b.dash.sessions.setLast(chatID, s.ID)
	b.notifyReport(chatID, s)
}

func (b *telegramBot) handleQuery(chatID int64, sql string) {
	last, ok := b.dash.sessions.last(chatID)
	if !ok {
		b.reply(chatID, "Send a file or /sample first, then query it.")
		return
	}
	if sql == "" {
		b.reply(chatID, "Usage: /query SELECT ... FROM dataset")
		return
	}
	s, err := b.dash.query(context.Background(), last, sql)
	var qe *store.QueryError
	switch {
	case errors.As(err, &qe):
		b.reply(chatID, "Query rejected: "+qe.Reason)
		return
	case errors.Is(err, errStoreUnavailable), errors.Is(err, errNotStored):
		b.reply(chatID, "Queries are not available for this dataset.")
		return
	case err != nil:
		b.reply(chatID, "Query failed: "+err.Error())
		return
	}
	b.dash.sessions.setLast(chatID, s.ID)
	b.notifyReport(chatID, s)
}

func (b *telegramBot) lastColumn(chatID int64, command string) (*session, string, bool) {
	s, ok := b.dash.sessions.last(chatID)
	if !ok {
		b.reply(chatID, "No dataset yet. Send a file or /sample first.")
		return nil, "", false
	}
	column, ok := resolveColumn(s.Report.Dataset.Names(), command)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Column %s not found in %s.", command, s.Name))
		return nil, "", false
	}
	return s, column, true
}

func (b *telegramBot) handleColumnDetails(chatID int64, command string) {
	s, column, ok := b.lastColumn(chatID, command)
	if !ok {
		return
	}
	text, _ := s.Report.ColumnText(column)
	b.replyPre(chatID, text)
}

// handleGraphColumn draws a histogram for numeric columns and a pie chart of
// value counts for the rest.
func (b *telegramBot) handleGraphColumn(chatID int64, command string) {
	s, column, ok := b.lastColumn(chatID, command)
	if !ok {
		return
	}
	kind := "pie"
	if _, numeric := s.Report.Descriptive.NumericColumn(column); numeric {
		kind = "histogram"
	}
	graph, _, err := renderChart(s, kind, column, formatPNG)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Cannot draw %s: %v", column, err))
		return
	}
	b.sendGraph(chatID, graph, kind, column)
}

// resolveColumn finds the column whose command form equals command.
func resolveColumn(names []string, command string) (string, bool) {
	for _, name := range names {
		if ingest.CleanName(name) == command {
			return name, true
		}
	}
	return "", false
}

// columnCommands lists the per-column commands of a dataset.
func columnCommands(names []string) string {
	var b strings.Builder
	for _, name := range names {
		cmd := ingest.CleanName(name)
		if cmd == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Column commands:\n")
		}
		fmt.Fprintf(&b, "%s: /%s%s /%s%s\n", name, detailsPrefix, cmd, graphPrefix, cmd)
	}
	return b.String()
}
