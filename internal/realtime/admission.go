package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/auth/token"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/logger"
	obsmetrics "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/metrics"
	userdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/domain"
	"go.uber.org/zap"
)

var (
	ErrCredentialMissing = errors.New("credential_missing")
	ErrUnknownUser       = errors.New("unknown_user")
)

// RejectionReason is the only reason ever shown to a rejected client.
// The real cause stays in the admission record for diagnostics.
const RejectionReason = "unauthorized"

// CredentialSource yields the raw bearer credential of one connection
// attempt, if the transport carried one.
type CredentialSource interface {
	Credential() (string, bool)
}

// HandshakeCredential extracts the explicit auth field from the
// handshake query.
type HandshakeCredential struct {
	Query url.Values
}

func (s HandshakeCredential) Credential() (string, bool) {
	raw := strings.TrimSpace(s.Query.Get("auth.token"))
	return raw, raw != ""
}

// HeaderCredential extracts a Bearer token from an Authorization
// header.
type HeaderCredential struct {
	Header http.Header
}

func (s HeaderCredential) Credential() (string, bool) {
	raw := strings.TrimSpace(s.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, prefix))
	return raw, raw != ""
}

// Sources tries each source in order; the first one carrying a
// credential wins.
func Sources(sources ...CredentialSource) CredentialSource {
	return chainSource(sources)
}

type chainSource []CredentialSource

func (c chainSource) Credential() (string, bool) {
	for _, s := range c {
		if raw, ok := s.Credential(); ok {
			return raw, true
		}
	}
	return "", false
}

type Outcome string

const (
	OutcomeIdentified Outcome = "admit_identified"
	OutcomeAnonymous  Outcome = "admit_anonymous"
	OutcomeRejected   Outcome = "rejected"
)

// Admission is the resolved decision for one connection attempt.
type Admission struct {
	Outcome Outcome
	User    *userdomain.Projection
	cause   error
}

func (a Admission) Admitted() bool {
	return a.Outcome != OutcomeRejected
}

// Cause is the internal rejection cause. Never send it to the client.
func (a Admission) Cause() error {
	return a.cause
}

// Guard decides whether a realtime connection may proceed. Strictness
// is re-read on every attempt so it can be toggled at runtime.
type Guard struct {
	verifier *token.Verifier
	users    userdomain.Service
	strict   func() bool
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

func NewGuard(verifier *token.Verifier, users userdomain.Service, strict func() bool, log *zap.Logger, m *obsmetrics.Metrics) *Guard {
	return &Guard{
		verifier: verifier,
		users:    users,
		strict:   strict,
		log:      log.Named("realtime.guard"),
		metrics:  m,
	}
}

// Admit evaluates one connection attempt. In strict mode every
// credential problem rejects with the uniform reason; in permissive
// mode every credential problem degrades to anonymous admission.
func (g *Guard) Admit(ctx context.Context, src CredentialSource) Admission {
	strict := g.strict()

	raw, ok := src.Credential()
	if !ok {
		if strict {
			return g.reject(ctx, ErrCredentialMissing)
		}
		return g.anonymous(ctx, nil)
	}

	claims, err := g.verifier.Verify(raw)
	if err != nil {
		if strict {
			return g.reject(ctx, err)
		}
		return g.anonymous(ctx, err)
	}

	user, err := g.users.ResolveByEmail(ctx, claims.Identity())
	if err != nil {
		if errors.Is(err, userdomain.ErrNotFound) || errors.Is(err, userdomain.ErrInvalidEmail) {
			err = ErrUnknownUser
		}
		if strict {
			return g.reject(ctx, err)
		}
		return g.anonymous(ctx, err)
	}

	projection := user.Project()
	logger.WithActor(g.log, "user", projection.ID).Debug("admission identified")
	g.metrics.RecordAdmission(ctx, string(OutcomeIdentified), "")
	return Admission{Outcome: OutcomeIdentified, User: &projection}
}

func (g *Guard) reject(ctx context.Context, cause error) Admission {
	if errors.Is(cause, token.ErrMisconfiguredSecret) {
		g.log.Error("admission rejected, signing secret is not configured")
	} else {
		g.log.Warn("admission rejected", zap.Error(cause))
	}
	g.metrics.RecordAdmission(ctx, string(OutcomeRejected), causeLabel(cause))
	return Admission{Outcome: OutcomeRejected, cause: cause}
}

func (g *Guard) anonymous(ctx context.Context, swallowed error) Admission {
	if swallowed != nil {
		g.log.Debug("credential ignored in permissive mode", zap.Error(swallowed))
	}
	g.metrics.RecordAdmission(ctx, string(OutcomeAnonymous), causeLabel(swallowed))
	return Admission{Outcome: OutcomeAnonymous}
}

func causeLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialMissing):
		return "credential_missing"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, token.ErrMisconfiguredSecret):
		return "misconfigured_secret"
	case errors.Is(err, token.ErrMalformedClaim):
		return "malformed_claim"
	case errors.Is(err, token.ErrInvalidCredential):
		return "invalid_credential"
	default:
		return "dependency_failure"
	}
}
