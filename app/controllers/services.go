package controllers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/billing"
	"github.com/ourstoryourvoice/osov/internal/pkg/hcaptcha"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/mediastore"
	"github.com/ourstoryourvoice/osov/internal/pkg/statistics"
)

// ImageStore stores cover images for stories and events
type ImageStore interface {
	SaveFile(ctx context.Context, folder string, fh *multipart.FileHeader) (*mediastore.Result, error)
}

// ViewCounter buffers story views until the next flush
type ViewCounter interface {
	AddStoryView(ctx context.Context, storyID uint) error
}

// Config carries the settings handlers need at request time
type Config struct {
	BaseURL             string
	SecretKey           string
	AdminEmail          string
	StripeWebhookSecret string
}

// Services is built once in cmd/osov and shared by every controller.
// Media may be nil when object storage is not configured.
type Services struct {
	Repos    *repository.Repositories
	Sessions *session.Store
	Billing  *billing.Service
	Mail     mail.Sender
	Media    ImageStore
	Views    ViewCounter
	Stats    *statistics.Service
	Captcha  *hcaptcha.Verifier
	Config   Config
	Now      func() time.Time
}

func (s *Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Controllers groups every handler set for the router.
type Controllers struct {
	Auth         *AuthController
	Pages        *PageController
	Stories      *StoryController
	Events       *EventController
	Applications *ApplicationController
	Donations    *DonationController
	Contact      *ContactController
	Admin        *AdminController
}

func New(s *Services) *Controllers {
	return &Controllers{
		Auth:         &AuthController{s},
		Pages:        &PageController{s},
		Stories:      &StoryController{s},
		Events:       &EventController{s},
		Applications: &ApplicationController{s},
		Donations:    &DonationController{s},
		Contact:      &ContactController{s},
		Admin:        &AdminController{s},
	}
}
