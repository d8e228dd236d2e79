package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the projection of the users collection this service reads and
// writes. Profile management lives elsewhere; only LikedPosts is mutated here.
type User struct {
	ID         primitive.ObjectID   `bson:"_id" json:"_id"`
	Username   string               `bson:"username" json:"username"`
	FullName   string               `bson:"fullName" json:"fullName"`
	Email      string               `bson:"email,omitempty" json:"-"`
	Password   string               `bson:"password,omitempty" json:"-"`
	ProfileImg string               `bson:"profileImg,omitempty" json:"profileImg,omitempty"`
	Following  []primitive.ObjectID `bson:"following" json:"following"`
	LikedPosts []primitive.ObjectID `bson:"likedPosts" json:"likedPosts"`
}

// UserSummary is the public author view attached to posts and comments.
type UserSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	FullName   string             `bson:"fullName" json:"fullName"`
	ProfileImg string             `bson:"profileImg,omitempty" json:"profileImg,omitempty"`
}

// Summary returns the public view of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}
