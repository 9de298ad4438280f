package service

import (
	"context"
	"testing"

	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileInput(name, roll string) ProfileInput {
	return ProfileInput{
		Name:          name,
		RollNumber:    roll,
		Semester:      catalog.Default.Semesters[0],
		Department:    catalog.Default.Departments[0],
		InstituteName: testInstitute,
	}
}

func TestProfileSaveCreatesForGoogleAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.auth.AuthenticateOAuth(ctx, "g@x.com")
	require.NoError(t, err)

	_, err = env.profiles.ByUserID(ctx, user.ID)
	require.Error(t, err)

	profile, err := env.profiles.Save(ctx, user.ID, profileInput("Gias", "4004"))
	require.NoError(t, err)
	assert.True(t, profile.IsComplete())

	in := profileInput("Gias Uddin", "9999")
	in.InstituteName = catalog.Default.Institutes[0]
	in.Phone = "01912345678"
	profile, err = env.profiles.Save(ctx, user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Gias Uddin", profile.Name)
	assert.Equal(t, "4004", profile.RollNumber, "roll number is fixed once set")
	assert.Equal(t, testInstitute, profile.InstituteName, "institute is fixed once set")
}

func TestProfileSaveValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "v@x.com", "pw", true, nil)

	tests := []struct {
		name   string
		mutate func(*ProfileInput)
	}{
		{"unknown institute", func(in *ProfileInput) { in.InstituteName = "Harvard" }},
		{"unknown semester", func(in *ProfileInput) { in.Semester = "9th" }},
		{"bad phone", func(in *ProfileInput) { in.Phone = "12345" }},
		{"non-numeric roll", func(in *ProfileInput) { in.RollNumber = "A1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := profileInput("Valid Name", "5005")
			tt.mutate(&in)
			_, err := env.profiles.Save(ctx, user.ID, in)
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestProfileSameInstitute(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	viewer := env.seedPasswordUser(t, "a@x.com", "pw", true, testProfile("A", "1"))
	peer := env.seedPasswordUser(t, "b@x.com", "pw", true, testProfile("B", "2"))
	other := testProfile("C", "3")
	other.InstituteName = catalog.Default.Institutes[0]
	outsider := env.seedPasswordUser(t, "c@x.com", "pw", true, other)

	got, err := env.profiles.SameInstitute(ctx, viewer.ID, peer.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)

	_, err = env.profiles.SameInstitute(ctx, viewer.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotSameInstitute)
}

func TestProfileNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "n@x.com", "pw", true, nil)

	note := &model.Notification{UserID: user.ID, Type: "x", Title: "Hello", Message: "m"}
	require.NoError(t, env.store.Notifications.Create(ctx, note))

	list, err := env.profiles.Notifications(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	require.NoError(t, env.profiles.MarkNotificationRead(ctx, user.ID, list[0].ID))
	list, err = env.profiles.Notifications(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.True(t, list[0].IsRead)
}

func TestProfileAvatar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedPasswordUser(t, "p@x.com", "pw", true, testProfile("P", "6"))

	file, header := upload("a.png", "image/png", "\x89PNG")
	_, err := env.files.ReplaceAvatar(ctx, user.ID, file, header)
	require.NoError(t, err)

	file, header = upload("b.png", "image/png", "\x89PNG")
	_, err = env.files.ReplaceAvatar(ctx, user.ID, file, header)
	require.NoError(t, err)
	assert.Equal(t, 1, env.storage.Len(), "old avatar removed")

	profile, err := env.profiles.ByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, profile.AvatarURL, "public/avatars/")
	assert.Contains(t, profile.AvatarURL, "public=true")
}
