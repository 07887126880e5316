package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/apperror"
	"github.com/wangArtsoar/tars/capture"
	"github.com/wangArtsoar/tars/domain/persistence"
	"github.com/wangArtsoar/tars/gemini_util"
)

// Querier sends a conversation to the model and returns the answer text.
type Querier interface {
	Query(ctx context.Context, history []*Content) (string, error)
}

// ScreenCapturer grabs the primary display.
type ScreenCapturer interface {
	CaptureRaw() ([]byte, error)
	CaptureEncoded(mimeType string) ([]byte, error)
}

// Toggler flips the UI window between shown and hidden.
type Toggler interface {
	Toggle() error
}

// ConversationData is what the UI hands over to be recorded.
type ConversationData struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Context   string `json:"context"`
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
}

// Service composes capture, the model client, the window and the store.
// It keeps no state between calls.
type Service struct {
	querier Querier
	screen  ScreenCapturer
	window  Toggler
	store   persistence.Store
	sealer  gemini_util.ISealer
	newID   func() string
	log     *logrus.Entry
}

type Option func(*Service)

// WithSealer seals the context field of stored conversations.
func WithSealer(s gemini_util.ISealer) Option {
	return func(svc *Service) { svc.sealer = s }
}

// WithIDGenerator replaces uuid.NewString for record ids.
func WithIDGenerator(fn func() string) Option {
	return func(svc *Service) { svc.newID = fn }
}

func NewService(q Querier, screen ScreenCapturer, w Toggler, store persistence.Store, log *logrus.Entry, opts ...Option) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	svc := &Service{
		querier: q,
		screen:  screen,
		window:  w,
		store:   store,
		newID:   uuid.NewString,
		log:     log.WithField("component", "service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SendConversation forwards history to the model unchanged.
func (s *Service) SendConversation(ctx context.Context, history []*Content) (string, error) {
	return s.querier.Query(ctx, history)
}

// Converse prepends the persona instruction carrying clipboard context and
// sends the history. The UI alias "tars" is sent as "model".
func (s *Service) Converse(ctx context.Context, contextText string, history []*Content) (string, error) {
	messages := make([]*Content, 0, len(history)+1)
	messages = append(messages, &Content{
		Role:  RoleModel,
		Parts: []*Part{TextPart(TextPrompt(contextText))},
	})
	for _, msg := range history {
		if msg == nil {
			continue
		}
		role := msg.Role
		if role == RoleAssistantAlias {
			role = RoleModel
		}
		messages = append(messages, &Content{Role: role, Parts: msg.Parts})
	}
	return s.SendConversation(ctx, messages)
}

// CaptureOnly returns raw RGBA pixels of the primary display.
func (s *Service) CaptureOnly(_ context.Context) ([]byte, error) {
	return s.screen.CaptureRaw()
}

// ToggleWindow flips window visibility.
func (s *Service) ToggleWindow(_ context.Context) error {
	if s.window == nil {
		return errors.New("window not found")
	}
	return s.window.Toggle()
}

// CaptureAndReveal captures first, then toggles the window. The toggle is
// not a show: calling it on a visible window hides it, and the fresh
// capture is returned either way.
func (s *Service) CaptureAndReveal(ctx context.Context) ([]byte, error) {
	pixels, err := s.CaptureOnly(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ToggleWindow(ctx); err != nil {
		return nil, err
	}
	return pixels, nil
}

// AskAboutScreen sends one user message holding prompt and a PNG of the
// primary display. Capture or encoding failures return before any request.
func (s *Service) AskAboutScreen(ctx context.Context, prompt string) (string, error) {
	pngBytes, err := s.screen.CaptureEncoded(capture.MimePNG)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(pngBytes)

	s.log.WithFields(logrus.Fields{
		"png_bytes":    len(pngBytes),
		"base64_chars": len(encoded),
	}).Debug("screenshot encoded")

	message := &Content{
		Role: RoleUser,
		Parts: []*Part{
			TextPart(prompt),
			ImagePart(capture.MimePNG, encoded),
		},
	}
	return s.querier.Query(ctx, []*Content{message})
}

// StoreConversation writes one record under a freshly generated id and
// returns a confirmation that names it.
func (s *Service) StoreConversation(ctx context.Context, data ConversationData) (string, error) {
	if s.store == nil {
		return "", apperror.New(apperror.KindPersistenceFailed, "no conversation store configured", nil)
	}

	record := &persistence.Conversation{
		ID:        s.newID(),
		Question:  data.Question,
		Response:  data.Response,
		Context:   data.Context,
		Timestamp: data.Timestamp,
		Mode:      data.Mode,
	}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(record.Context)
		if err != nil {
			return "", apperror.New(apperror.KindPersistenceFailed, "failed to seal context", err)
		}
		record.Context = sealed
	}

	if err := s.store.Put(ctx, record); err != nil {
		return "", apperror.New(apperror.KindPersistenceFailed, "Failed to store conversation", err)
	}
	s.log.WithFields(logrus.Fields{"id": record.ID, "mode": record.Mode}).Info("conversation stored")
	return fmt.Sprintf("Conversation stored successfully with ID: %s", record.ID), nil
}
