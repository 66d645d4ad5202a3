package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/auth"
	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/httputil"
	"github.com/ignite/mailing-admin/internal/service/client"
	"github.com/ignite/mailing-admin/internal/service/mailing"
	"github.com/ignite/mailing-admin/internal/service/message"
	"github.com/ignite/mailing-admin/internal/service/sending"
	"github.com/ignite/mailing-admin/internal/service/user"
)

// ClientService is the client CRUD surface used by the handlers.
type ClientService interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Client, error)
	Get(ctx context.Context, id domain.Identity, clientID uuid.UUID) (*domain.Client, error)
	Create(ctx context.Context, id domain.Identity, in client.Input) (*domain.Client, error)
	Update(ctx context.Context, id domain.Identity, clientID uuid.UUID, in client.Input) (*domain.Client, error)
	Delete(ctx context.Context, id domain.Identity, clientID uuid.UUID) error
}

// MessageService is the message CRUD surface used by the handlers.
type MessageService interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Message, error)
	Get(ctx context.Context, id domain.Identity, messageID uuid.UUID) (*domain.Message, error)
	Create(ctx context.Context, id domain.Identity, in message.Input) (*domain.Message, error)
	Update(ctx context.Context, id domain.Identity, messageID uuid.UUID, in message.Input) (*domain.Message, error)
	Delete(ctx context.Context, id domain.Identity, messageID uuid.UUID) error
}

// MailingService is the mailing surface used by the handlers.
type MailingService interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Mailing, error)
	Get(ctx context.Context, id domain.Identity, mailingID uuid.UUID) (*domain.Mailing, error)
	Create(ctx context.Context, id domain.Identity, in mailing.Input) (*domain.Mailing, error)
	Update(ctx context.Context, id domain.Identity, mailingID uuid.UUID, in mailing.Input) (*domain.Mailing, error)
	Delete(ctx context.Context, id domain.Identity, mailingID uuid.UUID) error
	Choices(ctx context.Context, id domain.Identity) (*mailing.Choices, error)
	Attempts(ctx context.Context, id domain.Identity, mailingID uuid.UUID, status string) ([]domain.MailingAttempt, error)
}

// Dispatcher sends a mailing to its recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, id domain.Identity, mailingID uuid.UUID) (*sending.Summary, error)
}

// StatsService serves the home statistics.
type StatsService interface {
	Home(ctx context.Context) (*domain.HomeStats, error)
}

// ProfileService edits the acting user's own account.
type ProfileService interface {
	Profile(ctx context.Context, id domain.Identity) (*domain.User, error)
	UpdateProfile(ctx context.Context, id domain.Identity, in user.ProfileInput) (*domain.User, error)
	UploadAvatar(ctx context.Context, id domain.Identity, r io.Reader) (*domain.User, error)
}

// Handlers holds the HTTP handlers for the admin API.
type Handlers struct {
	clients    ClientService
	messages   MessageService
	mailings   MailingService
	dispatcher Dispatcher
	stats      StatsService
	profiles   ProfileService
	log        *zap.Logger
}

// identity returns the acting user attached by the auth middleware.
func identity(r *http.Request) domain.Identity {
	return auth.IdentityFrom(r.Context())
}

// pathID parses the {id} URL parameter. A malformed id is reported as 404,
// the same as an id that does not exist.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.NotFound(w)
		return uuid.Nil, false
	}
	return id, true
}

// HandleStats returns the cached home statistics.
//
//	GET /api/stats
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Home(r.Context())
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, s)
}
