package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
)

func TestNoticeInputDefaults(t *testing.T) {
	in := &NoticeInput{Title: "  Gym closed for tournament  "}

	require.NoError(t, in.normalize())
	assert.Equal(t, "Gym closed for tournament", in.Title)
	assert.Equal(t, domain.NoticeInfo, in.Type)
	assert.Equal(t, domain.AudienceAll, in.Audience)
}

func TestNoticeInputRejections(t *testing.T) {
	publish := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	expireBefore := publish.Add(-time.Hour)
	expireEqual := publish

	tests := []struct {
		name    string
		input   NoticeInput
		wantErr error
	}{
		{"unknown type", NoticeInput{Title: "x", Type: "PROMO"}, ErrInvalidNoticeType},
		{"unknown audience", NoticeInput{Title: "x", Audience: "PARENTS"}, ErrInvalidAudience},
		{"expire before publish", NoticeInput{Title: "x", PublishAt: &publish, ExpireAt: &expireBefore}, ErrInvalidNoticeWindow},
		{"expire equals publish", NoticeInput{Title: "x", PublishAt: &publish, ExpireAt: &expireEqual}, ErrInvalidNoticeWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.input.normalize(), tt.wantErr)
		})
	}
}

func TestNoticeInputValidWindow(t *testing.T) {
	publish := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	expire := publish.Add(48 * time.Hour)

	in := &NoticeInput{
		Title:     "Belt ceremony",
		Type:      domain.NoticeEvent,
		Audience:  domain.AudienceMembers,
		PublishAt: &publish,
		ExpireAt:  &expire,
	}

	require.NoError(t, in.normalize())
	assert.Equal(t, domain.NoticeEvent, in.Type)
	assert.Equal(t, domain.AudienceMembers, in.Audience)
}
