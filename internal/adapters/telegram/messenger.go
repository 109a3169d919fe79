package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

// Messenger implements ports.Messenger against the Bot API.
type Messenger struct {
	api    *botAPI
	logger zerolog.Logger
}

// NewMessenger creates a Messenger. httpClient is shared; pass nil to
// get a dedicated client with a send timeout.
func NewMessenger(httpClient *http.Client, baseURL, token string, logger zerolog.Logger) *Messenger {
	return &Messenger{
		api:    newBotAPI(httpClient, baseURL, token),
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type editMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

type sendMediaURLRequest struct {
	ChatID            int64  `json:"chat_id"`
	Video             string `json:"video,omitempty"`
	Audio             string `json:"audio,omitempty"`
	Caption           string `json:"caption,omitempty"`
	ParseMode         string `json:"parse_mode,omitempty"`
	SupportsStreaming bool   `json:"supports_streaming,omitempty"`
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) (ports.MessageRef, error) {
	resp, err := m.api.postJSON(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return ports.MessageRef{}, err
	}
	var msg message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return ports.MessageRef{}, fmt.Errorf("telegram sendMessage: bad result: %w", err)
	}
	return ports.MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

func (m *Messenger) EditText(ctx context.Context, ref ports.MessageRef, text string) error {
	_, err := m.api.postJSON(ctx, "editMessageText", editMessageRequest{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      text,
		ParseMode: "Markdown",
	})
	return classifyMessageError(err)
}

func (m *Messenger) EditTextWithLink(ctx context.Context, ref ports.MessageRef, text, label, linkURL string) error {
	_, err := m.api.postJSON(ctx, "editMessageText", editMessageRequest{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      text,
		ParseMode: "Markdown",
		ReplyMarkup: &inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{{{Text: label, URL: linkURL}}},
		},
	})
	return classifyMessageError(err)
}

func (m *Messenger) Delete(ctx context.Context, ref ports.MessageRef) error {
	_, err := m.api.postJSON(ctx, "deleteMessage", deleteMessageRequest{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	})
	return classifyMessageError(err)
}

func (m *Messenger) SendMedia(ctx context.Context, chatID int64, mediaType domain.MediaType, src ports.MediaSource, caption string) error {
	method, field := "sendVideo", "video"
	if mediaType == domain.MediaAudio {
		method, field = "sendAudio", "audio"
	}

	var err error
	if src.URL != "" {
		payload := sendMediaURLRequest{ChatID: chatID, Caption: caption, ParseMode: "Markdown"}
		if mediaType == domain.MediaAudio {
			payload.Audio = src.URL
		} else {
			payload.Video = src.URL
			payload.SupportsStreaming = true
		}
		_, err = m.api.postJSON(ctx, method, payload)
	} else {
		err = m.api.sendMedia(ctx, method, field, chatID, src.Body, src.FileName, caption)
	}
	if err != nil {
		return classifySendError(err)
	}
	return nil
}

// classifySendError maps Bot API refusals onto the domain taxonomy so
// the delivery engine can pick the next strategy.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		return err
	}
	desc := strings.ToLower(reqErr.Description)
	switch {
	case reqErr.StatusCode == http.StatusRequestEntityTooLarge,
		strings.Contains(desc, "too large"),
		strings.Contains(desc, "too big"):
		return fmt.Errorf("%w: %v", domain.ErrMediaTooLarge, err)
	case strings.Contains(desc, "wrong file identifier"),
		strings.Contains(desc, "failed to get http url content"),
		strings.Contains(desc, "wrong type of the web page content"):
		return fmt.Errorf("%w: %v", domain.ErrBadMediaReference, err)
	default:
		return err
	}
}

// classifyMessageError maps "message already gone" refusals onto
// domain.ErrMessageGone, and swallows the not-modified nag that
// re-rendering an identical status produces.
func classifyMessageError(err error) error {
	if err == nil {
		return nil
	}
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		return err
	}
	desc := strings.ToLower(reqErr.Description)
	switch {
	case strings.Contains(desc, "message is not modified"):
		return nil
	case strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message can't be deleted"),
		strings.Contains(desc, "message can't be edited"):
		return fmt.Errorf("%w: %v", domain.ErrMessageGone, err)
	default:
		return err
	}
}
