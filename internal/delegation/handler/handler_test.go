package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/handler"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/ledger"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/notifier"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/service"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/token"
	httpapi "github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/http"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/credentials"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store/memory"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/mail"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/middleware"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
)

const (
	testSecret  = "handler-test-secret"
	testBaseURL = "http://localhost:3000"
)

// queueSpy collects composed invitation emails synchronously so tests can
// pull the token out of the body.
type queueSpy struct {
	messages []mail.Message
}

func (q *queueSpy) Enqueue(msg mail.Message) {
	q.messages = append(q.messages, msg)
}

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	users  *memory.Store
	codec  *token.Codec
	queue  *queueSpy

	alice      *models.User
	bob        *models.User
	aliceToken string
	bobToken   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	s.users = memory.New()
	s.codec = token.NewCodec(testSecret)
	s.queue = &queueSpy{}

	svc := service.New(
		s.users,
		s.codec,
		credentials.BcryptVerifier{},
		notifier.New(testBaseURL, s.queue),
		service.WithLedger(ledger.NewMemoryLedger()),
		service.WithLogger(logger),
	)

	router := httpapi.NewRouter(
		handler.New(svc, logger),
		middleware.NewHS256Validator(testSecret),
		logger,
	)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	hash, err := credentials.HashPassword("correct horse")
	s.Require().NoError(err)
	now := time.Now()

	s.alice, err = models.NewUser(id.NewUserID(), "alice@example.com", "Alice Kim", hash, now)
	s.Require().NoError(err)
	s.bob, err = models.NewUser(id.NewUserID(), "bob@example.com", "Bob Kim", hash, now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Save(context.Background(), s.alice))
	s.Require().NoError(s.users.Save(context.Background(), s.bob))

	s.aliceToken, err = middleware.SignAccessToken(testSecret, s.alice.ID, time.Hour)
	s.Require().NoError(err)
	s.bobToken, err = middleware.SignAccessToken(testSecret, s.bob.ID, time.Hour)
	s.Require().NoError(err)
}

func (s *HandlerSuite) do(method, path, bearer string, body any) *http.Response {
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, payload)
	s.Require().NoError(err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *HandlerSuite) errorCode(resp *http.Response) string {
	var body map[string]string
	s.decode(resp, &body)
	return body["error"]
}

// issueForBob nominates bob from alice's account over HTTP and returns the
// invitation token extracted from the queued email.
func (s *HandlerSuite) issueForBob() string {
	resp := s.do(http.MethodPatch, "/api/auth/"+s.alice.ID.String()+"/trustedUser", s.aliceToken,
		handler.IssueInvitationRequest{Email: "bob@example.com", CurrentPassword: "correct horse"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	s.Require().NotEmpty(s.queue.messages)
	body := s.queue.messages[len(s.queue.messages)-1].HTMLBody

	// The register link embeds the login link which embeds the accept link;
	// cut the raw token out of the first accept URL.
	const marker = "/accept?token="
	start := strings.Index(body, marker)
	s.Require().True(start >= 0, "email body carries no accept link")
	rest := body[start+len(marker):]
	end := strings.IndexAny(rest, `"<&`)
	s.Require().True(end > 0)
	return rest[:end]
}

func (s *HandlerSuite) TestGetUser() {
	s.Run("owner reads own record", func() {
		resp := s.do(http.MethodGet, "/api/auth/"+s.alice.ID.String(), s.aliceToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var user models.User
		s.decode(resp, &user)
		s.Equal("alice@example.com", user.Email)
	})

	s.Run("no bearer token", func() {
		resp := s.do(http.MethodGet, "/api/auth/"+s.alice.ID.String(), "", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("foreign record is forbidden", func() {
		resp := s.do(http.MethodGet, "/api/auth/"+s.alice.ID.String(), s.bobToken, nil)
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal("forbidden", s.errorCode(resp))
	})

	s.Run("malformed user id", func() {
		resp := s.do(http.MethodGet, "/api/auth/not-a-uuid", s.aliceToken, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func (s *HandlerSuite) TestIssueInvitation() {
	s.Run("nominates and returns the updated record", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.alice.ID.String()+"/trustedUser", s.aliceToken,
			handler.IssueInvitationRequest{Email: "bob@example.com", CurrentPassword: "correct horse"})
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var user models.User
		s.decode(resp, &user)
		s.Require().NotNil(user.TrustedUser)
		s.Equal("bob@example.com", user.TrustedUser.Email)
		s.False(user.TrustedUser.Confirmed)

		s.Require().Len(s.queue.messages, 1)
		s.Equal("bob@example.com", s.queue.messages[0].To)
	})

	s.Run("wrong password", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.alice.ID.String()+"/trustedUser", s.aliceToken,
			handler.IssueInvitationRequest{Email: "bob@example.com", CurrentPassword: "wrong"})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("unauthorized", s.errorCode(resp))
	})

	s.Run("missing email", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.alice.ID.String()+"/trustedUser", s.aliceToken,
			handler.IssueInvitationRequest{CurrentPassword: "correct horse"})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("cannot nominate from a foreign account", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.alice.ID.String()+"/trustedUser", s.bobToken,
			handler.IssueInvitationRequest{Email: "bob@example.com", CurrentPassword: "correct horse"})
		s.Equal(http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}

func (s *HandlerSuite) TestRedeemInvitation() {
	s.Run("links the designator", func() {
		tok := s.issueForBob()

		resp := s.do(http.MethodPatch, "/api/auth/"+s.bob.ID.String()+"/managedUsers?token="+tok, s.bobToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var user models.User
		s.decode(resp, &user)
		s.Require().Len(user.ManagedUsers, 1)
		s.Equal(s.alice.ID, user.ManagedUsers[0].UserID)
		s.False(user.ManagedUsers[0].Confirmed)
	})

	s.Run("missing token parameter", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.bob.ID.String()+"/managedUsers", s.bobToken, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("tampered token", func() {
		resp := s.do(http.MethodPatch, "/api/auth/"+s.bob.ID.String()+"/managedUsers?token=garbage", s.bobToken, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("invalid_token", s.errorCode(resp))
	})

	s.Run("second account gets a conflict", func() {
		tok := s.issueForBob()
		resp := s.do(http.MethodPatch, "/api/auth/"+s.bob.ID.String()+"/managedUsers?token="+tok, s.bobToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		hash, err := credentials.HashPassword("correct horse")
		s.Require().NoError(err)
		carol, err := models.NewUser(id.NewUserID(), "carol@example.com", "Carol Kim", hash, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.users.Save(context.Background(), carol))
		carolToken, err := middleware.SignAccessToken(testSecret, carol.ID, time.Hour)
		s.Require().NoError(err)

		resp = s.do(http.MethodPatch, "/api/auth/"+carol.ID.String()+"/managedUsers?token="+tok, carolToken, nil)
		s.Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("conflict", s.errorCode(resp))
	})
}

func (s *HandlerSuite) TestConfirm() {
	confirmPath := func(trustee, designator id.UserID) string {
		return fmt.Sprintf("/api/auth/%s/managedUsers/%s/confirmation", trustee, designator)
	}

	s.Run("confirms both records", func() {
		tok := s.issueForBob()
		resp := s.do(http.MethodPatch, "/api/auth/"+s.bob.ID.String()+"/managedUsers?token="+tok, s.bobToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(http.MethodPatch, confirmPath(s.bob.ID, s.alice.ID), s.bobToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var result struct {
			MainUserInfo    models.User `json:"mainUserInfo"`
			TrustedUserInfo models.User `json:"trustedUserInfo"`
		}
		s.decode(resp, &result)

		s.Require().NotNil(result.MainUserInfo.TrustedUser)
		s.True(result.MainUserInfo.TrustedUser.Confirmed)
		s.Require().NotNil(result.MainUserInfo.TrustedUser.UserID)
		s.Equal(s.bob.ID, *result.MainUserInfo.TrustedUser.UserID)

		s.Require().Len(result.TrustedUserInfo.ManagedUsers, 1)
		s.True(result.TrustedUserInfo.ManagedUsers[0].Confirmed)
	})

	s.Run("no pending delegation", func() {
		resp := s.do(http.MethodPatch, confirmPath(s.bob.ID, s.alice.ID), s.bobToken, nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("not_found", s.errorCode(resp))
	})

	s.Run("cannot confirm for a foreign account", func() {
		resp := s.do(http.MethodPatch, confirmPath(s.bob.ID, s.alice.ID), s.aliceToken, nil)
		s.Equal(http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}
