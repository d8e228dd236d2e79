// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the aggregate root stored in the posts collection. Comments are
// embedded in order, likes hold user ids with set semantics.
type Post struct {
	ID         primitive.ObjectID   `bson:"_id" json:"_id"`
	UserID     primitive.ObjectID   `bson:"user" json:"authorId"`
	Text       string               `bson:"text,omitempty" json:"text,omitempty"`
	Img        string               `bson:"img,omitempty" json:"img,omitempty"`
	ImgAssetID string               `bson:"imgAssetId,omitempty" json:"-"`
	Comments   []Comment            `bson:"comments" json:"comments"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`

	// Author is populated on reads and never persisted.
	Author *UserSummary `bson:"-" json:"user,omitempty"`
}

// HasContent reports whether the post carries text or an image.
func (p *Post) HasContent() bool {
	return strings.TrimSpace(p.Text) != "" || p.Img != ""
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	return ContainsID(p.Likes, userID)
}

// FindComment returns the embedded comment with the given id.
func (p *Post) FindComment(id primitive.ObjectID) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// ContainsID reports whether ids contains id.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
