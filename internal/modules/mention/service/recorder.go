package service

import (
	"context"
	"fmt"
	"log"

	"anoa.com/feedsync/internal/entity"
	mentionRepo "anoa.com/feedsync/internal/modules/mention/repository"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/google/uuid"
)

// Notifier persists and pushes one notification.
type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

const (
	ContentPost    = "post"
	ContentComment = "comment"
)

type Recorder struct {
	repo     mentionRepo.MentionRepository
	profiles ProfileLookup
	notifier Notifier
}

func NewRecorder(repo mentionRepo.MentionRepository, profiles ProfileLookup, notifier Notifier) *Recorder {
	return &Recorder{repo: repo, profiles: profiles, notifier: notifier}
}

// Record stores one mention row per id and notifies every mentioned user
// except the author. commentID is nil for mentions in the post body.
func (r *Recorder) Record(ctx context.Context, authorID, postID uuid.UUID, commentID *uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	mentions := make([]entity.Mention, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, entity.Mention{
			PostID:           postID,
			CommentID:        commentID,
			MentioningUserID: authorID,
			MentionedUserID:  id,
		})
	}
	if err := r.repo.CreateMany(ctx, mentions); err != nil {
		return apperror.Remote(err)
	}

	author, err := r.profiles.FindByID(ctx, authorID)
	if err != nil {
		return apperror.Remote(err)
	}
	username := ""
	if author != nil {
		username = author.Username
	}

	contentType := ContentPost
	if commentID != nil {
		contentType = ContentComment
	}

	var failed int
	for _, id := range ids {
		if id == authorID {
			continue
		}
		data := map[string]any{
			"post_id":            postID.String(),
			"mentioning_user_id": authorID.String(),
			"username":           username,
			"content_type":       contentType,
		}
		if commentID != nil {
			data["comment_id"] = commentID.String()
		}
		if err := r.notifier.Notify(ctx, &entity.Notification{
			UserID: id,
			Type:   entity.NotificationMention,
			Data:   data,
		}); err != nil {
			log.Printf("❌ mention notification for %s: %v", id, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d mention notifications failed: %w", failed, apperror.ErrRemote)
	}
	return nil
}

// Processor extracts the mentions of freshly written content and records them.
type Processor struct {
	extractor *Extractor
	recorder  *Recorder
}

func NewProcessor(extractor *Extractor, recorder *Recorder) *Processor {
	return &Processor{extractor: extractor, recorder: recorder}
}

func (p *Processor) Process(ctx context.Context, authorID, postID uuid.UUID, commentID *uuid.UUID, content string) ([]uuid.UUID, error) {
	ids, err := p.extractor.Extract(ctx, content)
	if err != nil {
		return nil, err
	}
	return ids, p.recorder.Record(ctx, authorID, postID, commentID, ids)
}
