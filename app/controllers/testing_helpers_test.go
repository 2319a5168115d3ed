package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/billing"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

const testWebhookSecret = "whsec_controllers"

type sentMail struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (s *sentMail) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *sentMail) subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m.Subject)
	}
	return out
}

type stubProvider struct {
	mu      sync.Mutex
	next    int
	created []billing.CheckoutRequest
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.created = append(p.created, req)
	id := fmt.Sprintf("cs_ctrl_%d", p.next)
	return &billing.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (p *stubProvider) RetrieveSession(_ context.Context, id string) (*billing.SessionState, error) {
	return &billing.SessionState{ID: id, Status: billing.SessionStatusOpen}, nil
}

func (p *stubProvider) CancelAtPeriodEnd(context.Context, string) error {
	return errors.New("not used")
}

// recordingViews stands in for the html engine and keeps the last binding.
type recordingViews struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

func (v *recordingViews) Load() error { return nil }

func (v *recordingViews) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name = name
	v.data, _ = binding.(fiber.Map)
	_, err := io.WriteString(w, name)
	return err
}

func (v *recordingViews) last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name, v.data
}

type testEnv struct {
	db       *gorm.DB
	services *Services
	ctrls    *Controllers
	provider *stubProvider
	mail     *sentMail
	views    *recordingViews
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	provider := &stubProvider{}
	sender := &sentMail{}
	s := &Services{
		Repos:   repository.NewRepositories(db),
		Billing: billing.NewServiceFromDB(db, provider, billing.Config{BaseURL: "http://osov.test"}),
		Mail:    sender,
		Config: Config{
			BaseURL:             "http://osov.test",
			AdminEmail:          "admin@osov.test",
			StripeWebhookSecret: testWebhookSecret,
		},
	}
	return &testEnv{db: db, services: s, ctrls: New(s), provider: provider, mail: sender, views: &recordingViews{}}
}

// app returns a bare fiber app that treats every request as coming from u.
func (e *testEnv) app(u *models.User) *fiber.App {
	app := fiber.New(fiber.Config{Views: e.views, ErrorHandler: func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		return c.Status(code).SendString(err.Error())
	}})
	app.Use(func(c *fiber.Ctx) error {
		if u != nil {
			usercontext.Set(c, usercontext.FromUser(u))
		}
		return c.Next()
	})
	return app
}

func (e *testEnv) user(t *testing.T, email, role string) *models.User {
	t.Helper()
	u, err := models.NewUser("Ada", "Lovelace", email, "Sup3r!secret")
	require.NoError(t, err)
	u.Role = role
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
