package main

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// Larger images go out as documents so Telegram does not recompress them.
const maxSizePhoto = 150000

func (b *telegramBot) sendGraph(chatID int64, graph []byte, kind, columnName string) {
	pngFile := tgbotapi.FileBytes{
		Name:  fmt.Sprintf("%s_%s_%s.png", kind, columnName, time.Now().Format("20060102-150405")),
		Bytes: graph,
	}
	caption := generateVisualDescription(kind, columnName)

	var msg tgbotapi.Chattable
	if len(graph) < maxSizePhoto {
		photo := tgbotapi.NewPhotoUpload(chatID, pngFile)
		photo.Caption = caption
		msg = photo
	} else {
		doc := tgbotapi.NewDocumentUpload(chatID, pngFile)
		doc.Caption = caption
		msg = doc
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send chart", "kind", kind, "column", columnName, "error", err)
		b.reply(chatID, fmt.Sprintf("Could not send the %s chart: %v", kind, err))
	}
}

func generateVisualDescription(kind, columnName string) string {
	switch kind {
	case "histogram":
		return fmt.Sprintf("Histogram of %s\nHow often values fall into each range.", columnName)
	case "pie":
		return fmt.Sprintf("Distribution of %s\nShare of each value among non-missing rows.", columnName)
	case "bar":
		return fmt.Sprintf("Frequency of %s\nNumber of rows per value.", columnName)
	}
	return columnName
}
