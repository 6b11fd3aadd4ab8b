// Package comments provides threaded discussion on contracts. Parties use
// it to negotiate the text before signing; replies reference a parent
// comment ID.
package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/paymandar/backend/internal/idgen"
)

const maxCommentLength = 2000

var (
	ErrCommentEmpty    = errors.New("comment cannot be empty")
	ErrCommentTooLong  = errors.New("comment exceeds 2000 characters")
	ErrCommentNotFound = errors.New("comment not found")
	ErrInvalidParent   = errors.New("parent comment does not belong to this contract")
	ErrInvalidType     = errors.New("unknown comment type")
)

// CommentType categorizes a comment.
type CommentType string

const (
	TypeComment    CommentType = "comment"    // general remark
	TypeSuggestion CommentType = "suggestion" // proposed text change
	TypeQuestion   CommentType = "question"   // clarification request
)

// Comment is a remark on a contract, optionally replying to another comment.
type Comment struct {
	ID         string      `json:"id"`
	ContractID string      `json:"contractId"`
	Text       string      `json:"text"`
	Type       CommentType `json:"type"`
	AuthorName string      `json:"authorName"`
	ParentID   string      `json:"parentId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Store persists comments.
type Store interface {
	Create(ctx context.Context, comment *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	ListByContract(ctx context.Context, contractID string, limit int) ([]*Comment, error)
}

// PostRequest contains the parameters for posting a comment.
type PostRequest struct {
	Text       string `json:"text" binding:"required"`
	Type       string `json:"type"`
	AuthorName string `json:"authorName" binding:"required"`
	ParentID   string `json:"parentId"`
}

// Service provides comment operations.
type Service struct {
	store Store
}

// NewService creates a new comment service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Post validates and stores a comment on the given contract.
func (s *Service) Post(ctx context.Context, contractID string, req PostRequest) (*Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrCommentEmpty
	}
	if len(text) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	if strings.TrimSpace(req.AuthorName) == "" {
		return nil, ErrCommentEmpty
	}

	ctype := CommentType(req.Type)
	if req.Type == "" {
		ctype = TypeComment
	}
	switch ctype {
	case TypeComment, TypeSuggestion, TypeQuestion:
	default:
		return nil, ErrInvalidType
	}

	if req.ParentID != "" {
		parent, err := s.store.Get(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ContractID != contractID {
			return nil, ErrInvalidParent
		}
	}

	comment := &Comment{
		ID:         idgen.WithPrefix("cmt_"),
		ContractID: contractID,
		Text:       text,
		Type:       ctype,
		AuthorName: strings.TrimSpace(req.AuthorName),
		ParentID:   req.ParentID,
		CreatedAt:  time.Now(),
	}

	if err := s.store.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByContract returns a contract's comments, oldest first.
func (s *Service) ListByContract(ctx context.Context, contractID string, limit int) ([]*Comment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListByContract(ctx, contractID, limit)
}
