package main

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/stats_dashboard/ingest"
	"github.com/pivolan/stats_dashboard/report"
)

// maxMessageLen stays below the Telegram limit of 4096 characters.
const maxMessageLen = 3900

// botAPI is the subset of tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type telegramBot struct {
	api    botAPI
	dash   *dashboard
	logger *slog.Logger
	client *http.Client
}

func newTelegramBot(api botAPI, dash *dashboard) *telegramBot {
	return &telegramBot{
		api:    api,
		dash:   dash,
		logger: dash.logger.With("component", "telegram"),
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// listen serves updates until ctx is done.
func (b *telegramBot) listen(ctx context.Context, bot *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := bot.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("telegram updates: %w", err)
	}
	b.logger.Info("bot started", "account", bot.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *telegramBot) handleUpdate(update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		return
	}
	defer b.recoverUpdate(message.Chat.ID)
	switch {
	case message.Document != nil:
		b.handleDocument(message)
	case message.IsCommand():
		b.handleCommand(message)
	case message.Text != "":
		b.handleText(message)
	}
}

// recoverUpdate keeps a panic in one chat from stopping the bot.
func (b *telegramBot) recoverUpdate(chatID int64) {
	r := recover()
	if r == nil {
		return
	}
	b.logger.Error("update panicked", "chat", chatID, "panic", r, "stack", string(debug.Stack()))
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic reply failed", "chat", chatID, "panic", r)
		}
	}()
	b.reply(chatID, "Something went wrong while processing your message.")
}

func (b *telegramBot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("send failed", "error", err)
	}
}

func (b *telegramBot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *telegramBot) replyPre(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "<pre>"+html.EscapeString(truncate(text, maxMessageLen))+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "\n..."
}

func (b *telegramBot) uploadLink(chatID int64) string {
	id := b.dash.sessions.linkUpload(chatID)
	return strings.TrimRight(b.dash.cfg.PublicURL, "/") + "/?id=" + id
}

// handleText analyses numbers found in free text, otherwise answers with a
// web upload link.
func (b *telegramBot) handleText(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	ds, err := ingest.NumbersDataset(message.Text)
	if err != nil {
		b.reply(chatID, "Send a CSV or XLSX file, a list of numbers, or upload a file here: "+b.uploadLink(chatID))
		return
	}
	s, err := b.dash.addDataset(context.Background(), "numbers", ds)
	if err != nil {
		b.reply(chatID, "Could not analyse these numbers: "+err.Error())
		return
	}
	b.dash.sessions.setLast(chatID, s.ID)
	if text, ok := s.Report.ColumnText(ingest.NumbersColumn); ok {
		b.replyPre(chatID, text)
	}
	if graph, _, err := renderChart(s, "histogram", ingest.NumbersColumn, formatPNG); err == nil {
		b.sendGraph(chatID, graph, "histogram", ingest.NumbersColumn)
	}
}

func (b *telegramBot) handleDocument(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	fileURL, err := b.api.GetFileDirectURL(message.Document.FileID)
	if err != nil {
		b.logger.Warn("file url", "error", err)
		b.reply(chatID, "Error on upload file, if file too big try another method, upload by this link: "+b.uploadLink(chatID))
		return
	}

	name := filepath.Base(message.Document.FileName)
	filePath := filepath.Join(b.dash.cfg.UploadDir, "tg_"+strconv.FormatInt(chatID, 10), name)
	if err := b.download(fileURL, filePath); err != nil {
		b.logger.Warn("download document", "error", err)
		b.reply(chatID, "Could not download the file: "+err.Error())
		return
	}

	ds, err := ingest.ReadFile(filePath, ingest.Options{}, b.dash.cfg.MaxUploadBytes())
	if err != nil {
		b.reply(chatID, "Could not read the file: "+err.Error())
		return
	}
	s, err := b.dash.addDataset(context.Background(), name, ds)
	if err != nil {
		b.reply(chatID, "Could not analyse the file: "+err.Error())
		return
	}
	b.dash.sessions.setLast(chatID, s.ID)
	b.notifyReport(chatID, s)
}

func (b *telegramBot) download(fileURL, filePath string) error {
	resp, err := b.client.Get(fileURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: %s", resp.Status)
	}
	return saveUpload(filePath, io.LimitReader(resp.Body, b.dash.cfg.MaxUploadBytes()))
}

// notifyReport sends the full analysis of s: the text report, exports,
// a few charts and the per-column commands.
func (b *telegramBot) notifyReport(chatID int64, s *session) {
	r := s.Report
	b.replyPre(chatID, r.Text())

	stamp := time.Now().Format("20060102-150405")
	b.send(newDocument(chatID, "stats"+stamp+".txt", []byte(r.Text()), "Full report"))

	if len(r.Descriptive.Numeric) > 0 {
		var csv bytes.Buffer
		if err := report.WriteCSV(&csv, r.Descriptive.Table(), true); err == nil {
			b.send(newDocument(chatID, "summary"+stamp+".csv", csv.Bytes(), "Descriptive statistics"))
		}
	}
	var xlsx bytes.Buffer
	if err := report.WriteXLSX(&xlsx, r.Sheets()...); err == nil {
		b.send(newDocument(chatID, "report"+stamp+".xlsx", xlsx.Bytes(), "Data and every statistics table"))
	} else {
		b.logger.Warn("xlsx export", "error", err)
	}

	for i, c := range r.Descriptive.Categorical {
		if i >= maxAutoCharts {
			break
		}
		if graph, _, err := renderChart(s, "pie", c.Column, formatPNG); err == nil {
			b.sendGraph(chatID, graph, "pie", c.Column)
		}
	}
	for i, n := range r.Descriptive.Numeric {
		if i >= maxAutoCharts {
			break
		}
		if graph, _, err := renderChart(s, "histogram", n.Column, formatPNG); err == nil {
			b.sendGraph(chatID, graph, "histogram", n.Column)
		}
	}

	if commands := columnCommands(r.Dataset.Names()); commands != "" {
		b.reply(chatID, commands)
	}
}

const maxAutoCharts = 3

func newDocument(chatID int64, name string, data []byte, caption string) tgbotapi.DocumentConfig {
	doc := tgbotapi.NewDocumentUpload(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	return doc
}
