package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"go.uber.org/zap"
)

// The append operations never take a group id from the caller. The target
// is always the sender's resolved current group, so nobody can post into a
// group they are not in.

func errNoGroup() error {
	return apperr.Validation("You are not in any group")
}

// postingGroup resolves where u may post, or a Validation error.
func (s *Service) postingGroup(ctx context.Context, u *models.User) (*models.GroupSummary, error) {
	g, err := s.currentGroup(ctx, u)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errNoGroup()
	}
	return g, nil
}

func (s *Service) append(ctx context.Context, sender *models.User, msg models.Message) (*models.MessageView, error) {
	m, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, apperr.Internal("append message", err)
	}
	v := models.NewView(m, sender.Name)
	return &v, nil
}

// AppendText posts a text message to the sender's current group.
func (s *Service) AppendText(ctx context.Context, senderID uuid.UUID, text string) (*models.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Message text is required")
	}

	u, err := s.caller(ctx, senderID)
	if err != nil {
		return nil, err
	}
	g, err := s.postingGroup(ctx, u)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, u, models.Message{
		GroupID:  g.ID,
		SenderID: senderID,
		Type:     models.MessageText,
		Text:     &text,
	})
}

// AppendImage records an image already stored by the blob store.
func (s *Service) AppendImage(ctx context.Context, senderID uuid.UUID, imageURL string) (*models.MessageView, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, apperr.Validation("No image file provided")
	}

	u, err := s.caller(ctx, senderID)
	if err != nil {
		return nil, err
	}
	g, err := s.postingGroup(ctx, u)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, u, models.Message{
		GroupID:  g.ID,
		SenderID: senderID,
		Type:     models.MessageImage,
		ImageURL: &imageURL,
	})
}

// AppendAnnouncement posts a guide announcement and hands it to the
// Announcer. The message is committed before Announce is called, and
// Announce returns without waiting for any delivery, so notification
// trouble can never fail or delay this call.
func (s *Service) AppendAnnouncement(ctx context.Context, senderID uuid.UUID, text string) (*models.MessageView, error) {
	u, err := s.caller(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleGuide {
		return nil, apperr.Forbidden("Only guides can send announcements")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Announcement text is required")
	}

	g, err := s.postingGroup(ctx, u)
	if err != nil {
		return nil, err
	}

	v, err := s.append(ctx, u, models.Message{
		GroupID:  g.ID,
		SenderID: senderID,
		Type:     models.MessageAnnouncement,
		Text:     &text,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("announcement posted",
		zap.String("group_id", g.ID.String()),
		zap.Int64("message_id", v.ID),
	)
	if s.announce != nil {
		s.announce.Announce(g.ID, text)
	}
	return v, nil
}

// ListMessages returns a group's full ledger, oldest first.
func (s *Service) ListMessages(ctx context.Context, groupID uuid.UUID) ([]models.MessageView, error) {
	msgs, err := s.messages.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("list messages", err)
	}
	return msgs, nil
}

// Snapshot is the polling read: the caller's current group and its whole
// ledger in one response. NotFound tells the client to stop polling and
// go create or join a group.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (*models.Snapshot, error) {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	g, err := s.currentGroup(ctx, u)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("No active group found")
	}

	msgs, err := s.ListMessages(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Group: *g, Messages: msgs}, nil
}
