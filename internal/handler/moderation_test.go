package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) seedAdmin(t *testing.T, email string) (*model.User, *http.Cookie) {
	t.Helper()
	admin := ts.seedUser(t, email, "correct-horse-battery")
	require.NoError(t, ts.store.Admins.Grant(context.Background(), admin.ID, "test"))
	return admin, ts.session(t, admin)
}

func TestAdminAPIRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "plain@x.com", "correct-horse-battery")

	rec := ts.get("/admin/api/users")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.get("/admin/api/users", ts.session(t, user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"not admin"}`, rec.Body.String())

	_, adminSession := ts.seedAdmin(t, "boss@x.com")
	rec = ts.get("/admin/api/users", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users []model.UserOverview `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
}

func TestBanBlocksAccountUntilLifted(t *testing.T) {
	ts := newTestServer(t)
	admin, adminSession := ts.seedAdmin(t, "boss@x.com")
	user := ts.seedUser(t, "rowdy@x.com", "correct-horse-battery")
	userSession := ts.session(t, user)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing reason", "/admin/api/users/" + user.ID + "/ban", `{"days":3}`, http.StatusBadRequest},
		{"negative days", "/admin/api/users/" + user.ID + "/ban", `{"reason":"spam","days":-1}`, http.StatusBadRequest},
		{"self ban", "/admin/api/users/" + admin.ID + "/ban", `{"reason":"spam"}`, http.StatusBadRequest},
		{"unknown user", "/admin/api/users/nobody/ban", `{"reason":"spam"}`, http.StatusNotFound},
		{"bad json", "/admin/api/users/" + user.ID + "/ban", `{"reason":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.postJSON(tt.path, tt.body, adminSession)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := ts.postJSON("/admin/api/users/"+user.ID+"/ban", `{"reason":"selling fake notes","days":3}`, adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var status model.BanStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsBanned)
	assert.Equal(t, "selling fake notes", status.BanReason)
	require.NotNil(t, status.BanExpiresAt)

	rec = ts.get("/app/profile", userSession)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/banned", rec.Header().Get("Location"))

	rec = ts.get("/banned", userSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "selling fake notes")

	rec = ts.postForm("/auth/login", url.Values{"email": {"rowdy@x.com"}, "password": {"correct-horse-battery"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/banned", rec.Header().Get("Location"))

	req, err := http.NewRequest(http.MethodDelete, "/admin/api/users/"+user.ID+"/ban", nil)
	require.NoError(t, err)
	rec = ts.do(req, adminSession)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.get("/app/profile", userSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.get("/banned", userSession)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestBannedPageWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/banned")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestStudentPageSameInstituteOnly(t *testing.T) {
	ts := newTestServer(t)
	viewer := ts.seedUser(t, "viewer@x.com", "correct-horse-battery")
	classmate := ts.seedUser(t, "classmate@x.com", "correct-horse-battery")
	outsider := ts.seedUser(t, "outsider@x.com", "correct-horse-battery")

	_, err := ts.db.Exec(`UPDATE profiles SET institute_name = $1 WHERE user_id = $2`, "অন্য ইনস্টিটিউট", outsider.ID)
	require.NoError(t, err)

	session := ts.session(t, viewer)

	rec := ts.get("/app/students/"+classmate.ID, session)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Student classmate@x.com")

	rec = ts.get("/app/students/"+outsider.ID, session)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.get("/app/students/missing", session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
