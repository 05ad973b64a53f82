package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/db"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/storage"
	"github.com/oggyb/elite-matchmaking/internal/utils/pagination"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MaxContentLen   = 2000
)

// Conversation is one entry of the chat list.
type Conversation struct {
	Profile db.Profile `json:"profile"`
}

// Page is one slice of a conversation history.
type Page struct {
	Messages []db.Message `json:"messages"`
	Next     *string      `json:"next,omitempty"`
}

// SentMessage is the stored message plus the client's temporary id, so the
// client can swap its optimistic copy for the persisted one.
type SentMessage struct {
	db.Message
	ClientID string `json:"client_id,omitempty"`
}

// Service implements the chat list, history and sending.
type Service struct {
	appCtx       *app.AppContext
	decisionRepo *repository.DecisionRepository
	profileRepo  *repository.ProfileRepository
	messageRepo  *repository.MessageRepository
	notifier     *realtime.Notifier
	presigner    *storage.Presigner
	bot          *BotReplier
}

func NewService(appCtx *app.AppContext, notifier *realtime.Notifier, presigner *storage.Presigner, bot *BotReplier) *Service {
	return &Service{
		appCtx:       appCtx,
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		messageRepo:  repository.NewMessageRepository(appCtx.DB),
		notifier:     notifier,
		presigner:    presigner,
		bot:          bot,
	}
}

// Conversations lists every profile the caller accepted, most recent first.
// Mutual acceptance is not required.
func (s *Service) Conversations(ctx context.Context, v *viewer.Viewer) ([]Conversation, error) {
	accepted, err := s.decisionRepo.AcceptedTargets(ctx, v.ID())
	if err != nil {
		s.appCtx.Logger.Error("AcceptedTargets failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(accepted))
	for _, d := range accepted {
		ids = append(ids, d.RecipientID)
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]Conversation, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			out = append(out, Conversation{Profile: p})
		}
	}
	return out, nil
}

// counterpart loads the other side of a conversation. Either side must have
// accepted the other.
func (s *Service) counterpart(ctx context.Context, v *viewer.Viewer, id string) (*db.Profile, error) {
	if id == "" || id == v.ID() {
		return nil, svcErr.InvalidArgument("invalid conversation")
	}
	p, err := s.profileRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("conversation not found")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	mine, err := s.decisionRepo.HasAccepted(ctx, v.ID(), id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if mine {
		return p, nil
	}
	theirs, err := s.decisionRepo.HasAccepted(ctx, id, v.ID())
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !theirs {
		return nil, svcErr.NotFound("conversation not found")
	}
	return p, nil
}

// Messages returns the history with counterpartID, oldest first.
func (s *Service) Messages(ctx context.Context, v *viewer.Viewer, counterpartID string, after *string, limit int) (*Page, error) {
	s.appCtx.Logger.Debug("Messages called", "account", v.ID(), "with", counterpartID)

	if _, err := s.counterpart(ctx, v, counterpartID); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	msgs, next, err := s.messageRepo.ListBetween(ctx, v.ID(), counterpartID, after, limit)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return nil, svcErr.InvalidArgument(err.Error())
		}
		s.appCtx.Logger.Error("ListBetween failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if msgs == nil {
		msgs = []db.Message{}
	}
	return &Page{Messages: msgs, Next: next}, nil
}

// Send persists a message, pushes it to the receiver and, for scripted
// counterparts, schedules a reply.
func (s *Service) Send(ctx context.Context, v *viewer.Viewer, counterpartID, content, clientID string) (*SentMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.InvalidArgument("content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return nil, svcErr.InvalidArgument("content is too long")
	}

	peer, err := s.counterpart(ctx, v, counterpartID)
	if err != nil {
		return nil, err
	}

	msg := &db.Message{SenderID: v.ID(), ReceiverID: peer.ID, Content: content}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		s.appCtx.Logger.Error("message create failed", "err", err)
		return nil, svcErr.Map(err)
	}

	_ = s.notifier.Publish(ctx, peer.ID, realtime.Event{Type: realtime.TypeMessage, Message: msg})
	if peer.IsBot {
		s.bot.Schedule(*peer, v.ID())
	}

	return &SentMessage{Message: *msg, ClientID: clientID}, nil
}

// PresignAttachment returns an upload slot for an image message. Premium only.
func (s *Service) PresignAttachment(ctx context.Context, v *viewer.Viewer, counterpartID, contentType string) (*storage.Upload, error) {
	if !v.Profile.IsPremium {
		return nil, svcErr.PermissionDenied("Upgrade to Premium to send images!")
	}
	if _, err := s.counterpart(ctx, v, counterpartID); err != nil {
		return nil, err
	}

	up, err := s.presigner.PresignImage(ctx, "chat/"+v.ID(), contentType)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return nil, svcErr.InvalidArgument("content_type must be an image type")
	} else if err != nil {
		s.appCtx.Logger.Error("presign failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return up, nil
}
