package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the functional role a user picks during onboarding.
//
// The zero value is RoleUnassigned: a freshly registered user has no role
// until RoleAssignment sets one. In Postgres the unassigned state is a NULL
// column, so stores translate between "" and NULL at the boundary.
type Role string

const (
	RoleUnassigned Role = ""
	RoleGuide      Role = "GUIDE"
	RolePilgrim    Role = "PILGRIM"
)

// Assignable reports whether r is a role a user may be given.
// Unassigned is a state, not a choice.
func (r Role) Assignable() bool {
	switch r {
	case RoleGuide, RolePilgrim:
		return true
	default:
		return false
	}
}

// MessageType tags the payload carried by a Message.
type MessageType string

const (
	MessageText         MessageType = "TEXT"
	MessageImage        MessageType = "IMAGE"
	MessageAnnouncement MessageType = "ANNOUNCEMENT"
)

// User is the identity record the core reads and mutates.
//
// CurrentGroupID is a weak pointer: it may be nil (no active group) and it
// may name a group that no longer resolves. Callers resolve it through the
// group repository and treat a miss the same as nil.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Phone          *string    `json:"phone"`
	Role           Role       `json:"role"`
	CurrentGroupID *uuid.UUID `json:"currentGroupId"`
	PasswordHash   string     `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// HasPhone reports whether the user can receive announcement notifications.
func (u *User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}

// Group is a guide-owned travel group. Code is globally unique.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	GuideID   uuid.UUID `json:"guideId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupSummary is a Group joined with its owner's display name.
// This is the shape every group-returning endpoint exposes.
type GroupSummary struct {
	Group
	GuideName string `json:"guideName"`
}

// GroupStats annotates a group with counts derived at read time.
// MemberCount counts users whose current group is this group; nothing on
// the group row itself tracks membership.
type GroupStats struct {
	GroupSummary
	MemberCount  int `json:"memberCount"`
	MessageCount int `json:"messageCount"`
}

// Message is one append-only ledger entry.
//
// Exactly one of Text and ImageURL is set: Text for TEXT and ANNOUNCEMENT,
// ImageURL for IMAGE. ID is a bigserial, so it doubles as the insertion
// sequence used to break CreatedAt ties.
type Message struct {
	ID        int64       `json:"id"`
	GroupID   uuid.UUID   `json:"groupId"`
	SenderID  uuid.UUID   `json:"senderId"`
	Type      MessageType `json:"type"`
	Text      *string     `json:"text"`
	ImageURL  *string     `json:"imageUrl"`
	CreatedAt time.Time   `json:"createdAt"`
}

// MessageView is a Message as clients see it, with the sender's name.
type MessageView struct {
	ID         int64       `json:"id"`
	Type       MessageType `json:"type"`
	Text       *string     `json:"text"`
	ImageURL   *string     `json:"imageUrl"`
	SenderID   uuid.UUID   `json:"senderId"`
	SenderName string      `json:"senderName"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewView pairs a stored message with its sender's display name.
func NewView(m *Message, senderName string) MessageView {
	return MessageView{
		ID:         m.ID,
		Type:       m.Type,
		Text:       m.Text,
		ImageURL:   m.ImageURL,
		SenderID:   m.SenderID,
		SenderName: senderName,
		CreatedAt:  m.CreatedAt,
	}
}

// Snapshot is the full-state payload returned to polling clients.
type Snapshot struct {
	Group    GroupSummary  `json:"group"`
	Messages []MessageView `json:"messages"`
}
