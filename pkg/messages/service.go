// Package messages manages platform-wide announcements.
package messages

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/google/uuid"
)

// ShowFor is how long a new message stays visible.
const ShowFor = 7 * 24 * time.Hour

// Message types.
const (
	TypeAnnouncement  = "announcement"
	TypeMaintenance   = "maintenance"
	TypeFeatureUpdate = "feature_update"
	TypeWarning       = "warning"
)

const defaultPriority = "normal"

type Service struct {
	store  storage.MessageStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store storage.MessageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateMessage publishes an announcement shown for ShowFor. An empty type
// means an announcement.
func (s *Service) CreateMessage(ctx context.Context, adminID, title, body, msgType string) (*models.SystemMessage, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "title and message are required")
	}
	switch msgType {
	case "":
		msgType = TypeAnnouncement
	case TypeAnnouncement, TypeMaintenance, TypeFeatureUpdate, TypeWarning:
	default:
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid message type %q", msgType)
	}

	now := s.now().UTC()
	msg := &models.SystemMessage{
		MessageId: uuid.New().String(),
		AdminId:   adminID,
		Title:     title,
		Message:   body,
		Type:      msgType,
		Priority:  defaultPriority,
		IsActive:  true,
		ShowUntil: now.Add(ShowFor),
		CreatedAt: now,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("system message created", "message_id", msg.MessageId, "admin_id", adminID, "type", msgType)
	return msg, nil
}

// ListActive returns the messages that are active and not yet past their
// display window.
func (s *Service) ListActive(ctx context.Context) ([]models.SystemMessage, error) {
	return s.store.ListActiveMessages(ctx, s.now().UTC())
}
