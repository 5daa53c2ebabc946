package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/middleware"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/config"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/models"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

type testUser struct {
	ID    string
	Token string
}

func newTestServer(t *testing.T, caps service.Capabilities) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1}
	services := service.NewServices(&service.ServiceDeps{
		Config:       cfg,
		Repos:        repository.NewInMemoryRepositories(),
		Capabilities: caps,
	})

	router := gin.New()
	RegisterRoutes(router.Group("/api"), NewHandlers(services, nil), middleware.AuthMiddleware(services.Auth))
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) register(email, preferredName string) testUser {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email:         email,
		Password:      "password123",
		PreferredName: preferredName,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[models.AuthResponse](s.t, w)
	return testUser{ID: resp.User.ID, Token: resp.AccessToken}
}

func (s *testServer) befriend(a, b testUser) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/friend-requests", a.Token, models.SendFriendRequestRequest{UserID: b.ID})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	req := decode[models.FriendRequestResponse](s.t, w)

	accept := true
	w = s.do(http.MethodPost, "/api/friend-requests/"+req.ID+"/respond", b.Token, models.RespondFriendRequestRequest{Accept: &accept})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
}

func (s *testServer) createDesk(owner testUser, name string, collaborative bool) models.DeskResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/desks", owner.Token, models.CreateDeskRequest{Name: name, IsCollaborative: collaborative})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.DeskResponse](s.t, w)
}

func (s *testServer) members(desk string, viewer testUser) []models.MemberResponse {
	s.t.Helper()
	w := s.do(http.MethodGet, "/api/desks/"+desk+"/members", viewer.Token, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[[]models.MemberResponse](s.t, w)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())

	w := s.do(http.MethodGet, "/api/desks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/desks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	ann := s.register("ann@example.com", "Ann")

	w := s.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{Email: "ANN@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ann@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/users/me", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.UserResponse](t, w)
	assert.Equal(t, models.DisplayResponse{Primary: "Ann", Secondary: "ann@example.com"}, me.Display)
}

func TestDeskOwnerSeesSelfAsOwner(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	desk := s.createDesk(owner, "Plans", true)

	members := s.members(desk.ID, owner)
	require.Len(t, members, 1)
	assert.True(t, members[0].IsOwner)
	assert.Equal(t, owner.ID, members[0].UserID)
}

func TestNonMemberCannotListMembers(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	stranger := s.register("stranger@example.com", "")
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodGet, "/api/desks/"+desk.ID+"/members", stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOwnerRequestAddAddsDirectly(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	friend := s.register("friend@example.com", "Fern")
	s.befriend(owner, friend)
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodPost, "/api/desks/"+desk.ID+"/member-requests", owner.Token,
		models.CreateMemberRequestRequest{TargetFriendID: friend.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[models.RequestAddResponse](t, w)
	assert.Nil(t, result.Request)
	require.NotNil(t, result.Member)
	assert.Equal(t, friend.ID, result.Member.UserID)

	w = s.do(http.MethodGet, "/api/desks/"+desk.ID+"/member-requests", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.MemberRequestResponse](t, w))

	w = s.do(http.MethodPost, "/api/desks/"+desk.ID+"/member-requests", owner.Token,
		models.CreateMemberRequestRequest{TargetFriendID: friend.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMemberRequestApprovalFlow(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	collab := s.register("collab@example.com", "Cole")
	target := s.register("target@example.com", "Tara")
	s.befriend(owner, collab)
	s.befriend(collab, target)
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodPost, "/api/desks/"+desk.ID+"/members", owner.Token, models.AddMemberRequest{UserID: collab.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	path := "/api/desks/" + desk.ID + "/member-requests"
	w = s.do(http.MethodPost, path, collab.Token, models.CreateMemberRequestRequest{TargetFriendID: target.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.RequestAddResponse](t, w)
	require.NotNil(t, created.Request)
	assert.Equal(t, "pending", created.Request.Status)

	w = s.do(http.MethodPost, path, collab.Token, models.CreateMemberRequestRequest{TargetFriendID: target.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "second pending request for the same friend")

	w = s.do(http.MethodGet, path, collab.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "only the owner reviews requests")

	w = s.do(http.MethodGet, path, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]models.MemberRequestResponse](t, w)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].TargetDisplay)
	assert.Equal(t, "Tara", pending[0].TargetDisplay.Primary)

	respond := "/api/member-requests/" + created.Request.ID + "/respond"
	w = s.do(http.MethodPost, respond, collab.Token, models.RespondMemberRequestRequest{Decision: "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, respond, owner.Token, models.RespondMemberRequestRequest{Decision: "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", decode[models.MemberRequestResponse](t, w).Status)

	w = s.do(http.MethodPost, respond, owner.Token, models.RespondMemberRequestRequest{Decision: "approved"})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Len(t, s.members(desk.ID, owner), 3)
}

func TestMemberRequestRequiresFriendship(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	stranger := s.register("stranger@example.com", "")
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodPost, "/api/desks/"+desk.ID+"/member-requests", owner.Token,
		models.CreateMemberRequestRequest{TargetFriendID: stranger.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMemberRequestsUnavailableOnOldSchema(t *testing.T) {
	s := newTestServer(t, service.CapabilitiesForVersion(service.SchemaVersionInit))
	owner := s.register("owner@example.com", "Olive")
	collab := s.register("collab@example.com", "Cole")
	target := s.register("target@example.com", "Tara")
	s.befriend(collab, target)
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodPost, "/api/desks/"+desk.ID+"/members", owner.Token, models.AddMemberRequest{UserID: collab.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/desks/"+desk.ID+"/member-requests", collab.Token,
		models.CreateMemberRequestRequest{TargetFriendID: target.ID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(http.MethodGet, "/api/capabilities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	caps := decode[service.Capabilities](t, w)
	assert.False(t, caps.MemberRequests)
	assert.Equal(t, service.SchemaVersionInit, caps.SchemaVersion)
}

func TestRemoveMemberRules(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	owner := s.register("owner@example.com", "Olive")
	friend := s.register("friend@example.com", "Fern")
	desk := s.createDesk(owner, "Plans", true)

	w := s.do(http.MethodPost, "/api/desks/"+desk.ID+"/members", owner.Token, models.AddMemberRequest{UserID: friend.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/desks/%s/members/%s", desk.ID, owner.ID), owner.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "owner row cannot be removed")

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/desks/%s/members/%s", desk.ID, owner.ID), friend.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/desks/%s/members/%s", desk.ID, friend.ID), owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/desks/%s/members/%s", desk.ID, friend.ID), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, s.members(desk.ID, owner), 1)
}

func TestFriendRequestErrors(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	ann := s.register("ann@example.com", "Ann")
	bob := s.register("bob@example.com", "Bob")

	w := s.do(http.MethodPost, "/api/friend-requests", ann.Token, models.SendFriendRequestRequest{UserID: ann.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/friend-requests", ann.Token, models.SendFriendRequestRequest{UserID: bob.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/friend-requests", bob.Token, models.SendFriendRequestRequest{UserID: ann.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "pending in the other direction")

	w = s.do(http.MethodGet, "/api/friend-requests", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	requests := decode[[]models.FriendRequestResponse](t, w)
	require.Len(t, requests, 1)
	assert.True(t, requests[0].Incoming)
}

func TestUnknownDeskIsNotFound(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	ann := s.register("ann@example.com", "Ann")

	w := s.do(http.MethodGet, "/api/desks/00000000-0000-0000-0000-000000000000", ann.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := newTestServer(t, service.LatestCapabilities())
	ann := s.register("ann@example.com", "Ann")
	desk := s.createDesk(ann, "Board", true)

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/api/desks/abc", nil},
		{http.MethodGet, "/api/desks/abc/members", nil},
		{http.MethodDelete, "/api/desks/" + desk.ID + "/members/bob", nil},
		{http.MethodPost, "/api/desks/" + desk.ID + "/member-requests", models.CreateMemberRequestRequest{TargetFriendID: "bob"}},
		{http.MethodPost, "/api/member-requests/x/respond", models.RespondMemberRequestRequest{Decision: "approved"}},
		{http.MethodPost, "/api/friend-requests/x/respond", models.RespondFriendRequestRequest{Accept: new(bool)}},
		{http.MethodPut, "/api/notifications/x/read", nil},
	}
	for _, tc := range cases {
		w := s.do(tc.method, tc.path, ann.Token, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}
}
