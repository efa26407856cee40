// Package chat forwards guest questions to the AI assistant.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Apology is shown in place of an answer when the assistant is unreachable.
const Apology = "Извините, произошла ошибка соединения с сервером. Попробуйте позже."

var ErrEmptyMessage = errors.New("message is empty")

type assistant interface {
	Chat(ctx context.Context, message, userID string) (string, error)
}

type Service struct {
	api           assistant
	defaultUserID string
	logger        logrus.FieldLogger
}

func New(api assistant, defaultUserID string, logger logrus.FieldLogger) *Service {
	return &Service{api: api, defaultUserID: defaultUserID, logger: logger}
}

// Reply is one assistant answer. Failed marks the inline apology.
type Reply struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// Ask never fails on backend errors; they become an apology reply.
func (s *Service) Ask(ctx context.Context, message, userID string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if strings.TrimSpace(userID) == "" {
		userID = s.defaultUserID
	}
	text, err := s.api.Chat(ctx, message, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("ai chat failed")
		return Reply{Text: Apology, Failed: true}, nil
	}
	return Reply{Text: text}, nil
}
