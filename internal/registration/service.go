package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"membergate/internal/allocator"
	"membergate/internal/audit"
	"membergate/internal/identity"
	"membergate/internal/identity/challenge"
	"membergate/internal/member"
	"membergate/internal/platform/config"
	"membergate/internal/platform/metrics"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/requestcontext"
)

// Service drives a wizard run through its four states. All state transitions
// go through the StateStore so the flow survives restarts when backed by
// Redis.
type Service struct {
	states     StateStore
	members    member.Store
	identity   identity.Provider
	challenges *challenge.Verifier
	alloc      *allocator.Allocator
	auditor    audit.Publisher

	wizardTTL time.Duration
	clock     func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics wires registration counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithServiceClock sets the clock. Tests pin it.
func WithServiceClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWizardTTL bounds how long an abandoned wizard run is kept.
func WithWizardTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.wizardTTL = ttl
		}
	}
}

// NewService constructs the registration orchestrator.
func NewService(
	states StateStore,
	members member.Store,
	provider identity.Provider,
	challenges *challenge.Verifier,
	alloc *allocator.Allocator,
	auditor audit.Publisher,
	opts ...Option,
) (*Service, error) {
	if states == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if members == nil {
		return nil, fmt.Errorf("member store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if challenges == nil {
		return nil, fmt.Errorf("challenge verifier is required")
	}
	if alloc == nil {
		return nil, fmt.Errorf("allocator is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	s := &Service{
		states:     states,
		members:    members,
		identity:   provider,
		challenges: challenges,
		alloc:      alloc,
		auditor:    auditor,
		wizardTTL:  30 * time.Minute,
		clock:      time.Now,
		logger:     slog.Default(),
		tracer:     otel.Tracer("membergate/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins a wizard run on the phone screen and issues the challenge
// token the phone submission must carry back.
func (s *Service) Start(ctx context.Context) (StartResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Start")
	defer span.End()

	token, err := s.challenges.Issue(ctx)
	if err != nil {
		return StartResult{}, dErrors.Wrap(fmt.Errorf("start registration: %w", err),
			dErrors.CodeUnavailable, "could not start registration")
	}

	now := s.clock()
	reg := Registration{
		ID:        uuid.NewString(),
		State:     StatePhone,
		Challenge: token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.states.Save(ctx, reg, s.wizardTTL); err != nil {
		return StartResult{}, dErrors.Wrap(fmt.Errorf("save registration: %w", err),
			dErrors.CodeUnavailable, "could not start registration")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsStarted.Inc()
	}
	s.emit(ctx, audit.Event{Type: audit.EventRegistrationStarted, RegistrationID: reg.ID})
	s.logger.InfoContext(ctx, "registration started", slog.String("registration_id", reg.ID))

	return StartResult{RegistrationID: reg.ID, Challenge: token}, nil
}

// SubmitPhone takes the 10-digit local number, rejects already-registered
// phones, and starts verification. It is also the change-number path: a run
// sitting on the code screen may submit a new phone and get a fresh code.
func (s *Service) SubmitPhone(ctx context.Context, regID, phone string) (PhoneResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.SubmitPhone",
		trace.WithAttributes(attribute.String("registration.id", regID)))
	defer span.End()

	reg, err := s.find(ctx, regID)
	if err != nil {
		return PhoneResult{}, err
	}
	if reg.State != StatePhone && reg.State != StateOTP {
		return PhoneResult{}, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot submit phone in state %q", reg.State))
	}
	if err := validatePhone(phone); err != nil {
		return PhoneResult{}, err
	}

	e164 := config.CountryPrefix + phone

	// Best-effort pre-check. The unique index on phone_number is the real
	// guard; this exists so a returning member is turned away before any
	// code is sent.
	exists, err := s.members.ExistsByPhone(ctx, e164)
	if err != nil {
		return PhoneResult{}, dErrors.Wrap(fmt.Errorf("check phone: %w", err),
			dErrors.CodeUnavailable, "could not check phone number")
	}
	if exists {
		if s.metrics != nil {
			s.metrics.DuplicatePhoneRejects.Inc()
		}
		s.emit(ctx, audit.Event{Type: audit.EventDuplicatePhone, RegistrationID: reg.ID})
		return PhoneResult{}, dErrors.New(dErrors.CodeConflict, "phone number is already registered")
	}

	pending, err := s.identity.StartVerification(ctx, e164, reg.Challenge)
	if err != nil {
		// The challenge token is gone whether or not the provider got far
		// enough to consume it; hand out a fresh one so the registrant can
		// retry without restarting the wizard.
		if token, issueErr := s.challenges.Issue(ctx); issueErr == nil {
			reg.Challenge = token
			reg.UpdatedAt = s.clock()
			if updateErr := s.states.Update(ctx, reg); updateErr != nil {
				s.logger.ErrorContext(ctx, "reissue challenge", slog.Any("error", updateErr))
			} else {
				s.emit(ctx, audit.Event{Type: audit.EventChallengeReissued, RegistrationID: reg.ID})
			}
		} else {
			s.logger.ErrorContext(ctx, "issue replacement challenge", slog.Any("error", issueErr))
		}
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return PhoneResult{}, err
		}
		return PhoneResult{}, dErrors.Wrap(fmt.Errorf("start verification: %w", err),
			dErrors.CodeUnavailable, "could not send verification code, please retry")
	}

	reg.State = StateOTP
	reg.Phone = e164
	reg.VerificationID = pending.ID
	reg.UpdatedAt = s.clock()
	if err := s.states.Update(ctx, reg); err != nil {
		return PhoneResult{}, dErrors.Wrap(fmt.Errorf("update registration: %w", err),
			dErrors.CodeUnavailable, "could not advance registration")
	}

	s.emit(ctx, audit.Event{Type: audit.EventVerificationStarted, RegistrationID: reg.ID})
	s.logger.InfoContext(ctx, "verification started",
		slog.String("registration_id", reg.ID),
		slog.String("verification_id", pending.ID),
	)
	return PhoneResult{State: StateOTP, VerificationExpires: pending.ExpiresAt}, nil
}

// SubmitCode confirms the one-time code. A wrong code keeps the run on the
// code screen; a correct one establishes the session and moves to the
// profile screen.
func (s *Service) SubmitCode(ctx context.Context, regID, code string) (CodeResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.SubmitCode",
		trace.WithAttributes(attribute.String("registration.id", regID)))
	defer span.End()

	reg, err := s.find(ctx, regID)
	if err != nil {
		return CodeResult{}, err
	}
	if reg.State != StateOTP {
		return CodeResult{}, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot submit code in state %q", reg.State))
	}
	if err := validateCode(code); err != nil {
		return CodeResult{}, err
	}

	sess, err := s.identity.Confirm(ctx, reg.VerificationID, code)
	if err != nil {
		return CodeResult{}, err
	}

	reg.State = StateProfile
	reg.UserID = sess.UserID
	reg.SessionToken = sess.Token
	reg.UpdatedAt = s.clock()
	if err := s.states.Update(ctx, reg); err != nil {
		return CodeResult{}, dErrors.Wrap(fmt.Errorf("update registration: %w", err),
			dErrors.CodeUnavailable, "could not advance registration")
	}

	s.emit(ctx, audit.Event{Type: audit.EventCodeConfirmed, RegistrationID: reg.ID, UserID: sess.UserID})
	s.logger.InfoContext(ctx, "code confirmed",
		slog.String("registration_id", reg.ID),
		slog.String("user_id", sess.UserID),
	)
	return CodeResult{State: StateProfile, UserID: sess.UserID, SessionToken: sess.Token}, nil
}

// SubmitProfile validates the form, mints the member ID, and writes the
// member record. Allocation strictly precedes the write: no member row ever
// exists without a minted ID.
func (s *Service) SubmitProfile(ctx context.Context, regID string, profile Profile) (ProfileResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.SubmitProfile",
		trace.WithAttributes(attribute.String("registration.id", regID)))
	defer span.End()

	reg, err := s.find(ctx, regID)
	if err != nil {
		return ProfileResult{}, err
	}
	if reg.State != StateProfile {
		return ProfileResult{}, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot submit profile in state %q", reg.State))
	}
	if err := validateProfile(&profile); err != nil {
		return ProfileResult{}, err
	}
	// When the transport established a session identity, it must be the one
	// this wizard run confirmed.
	if ctxUser := requestcontext.UserID(ctx); ctxUser != "" && ctxUser != reg.UserID {
		return ProfileResult{}, dErrors.New(dErrors.CodeForbidden, "session does not match registration")
	}

	memberID, err := s.alloc.Next(ctx, profile.Gender)
	if err != nil {
		s.emit(ctx, audit.Event{Type: audit.EventAllocationFailed, RegistrationID: reg.ID, UserID: reg.UserID})
		return ProfileResult{}, err
	}

	organization := profile.Organization
	if organization == "" {
		organization = member.DefaultOrganization
	}
	m := member.Member{
		UserID:       reg.UserID,
		MemberID:     memberID,
		PhoneNumber:  reg.Phone,
		Title:        profile.Title,
		Gender:       profile.Gender,
		Surname:      profile.Surname,
		FirstName:    profile.FirstName,
		FullName:     fmt.Sprintf("%s %s %s", profile.Title, profile.FirstName, profile.Surname),
		City:         profile.City,
		DateOfBirth:  formatDate(profile.DOB),
		Organization: organization,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.members.Save(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// The racy pre-check lost: someone registered this phone between
			// SubmitPhone and now. The minted ID is burned; the gap stays in
			// the sequence and the event records it.
			s.emit(ctx, audit.Event{
				Type:           audit.EventMemberWriteFailed,
				RegistrationID: reg.ID,
				UserID:         reg.UserID,
				MemberID:       memberID,
			})
			return ProfileResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "phone number is already registered")
		}
		s.emit(ctx, audit.Event{
			Type:           audit.EventMemberWriteFailed,
			RegistrationID: reg.ID,
			UserID:         reg.UserID,
			MemberID:       memberID,
		})
		return ProfileResult{}, dErrors.Wrap(fmt.Errorf("save member: %w", err),
			dErrors.CodeInternal, "failed to save registration")
	}

	reg.State = StateDone
	reg.MemberID = memberID
	reg.UpdatedAt = s.clock()
	if err := s.states.Update(ctx, reg); err != nil {
		// The member row is the durable outcome; a stale wizard entry only
		// costs the success screen its member ID.
		s.logger.ErrorContext(ctx, "finalize registration", slog.Any("error", err))
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCompleted.Inc()
	}
	s.emit(ctx, audit.Event{
		Type:           audit.EventMemberCreated,
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		MemberID:       memberID,
	})
	s.logger.InfoContext(ctx, "member created",
		slog.String("registration_id", reg.ID),
		slog.String("member_id", memberID),
	)
	return ProfileResult{MemberID: memberID, FullName: m.FullName, PhoneNumber: m.PhoneNumber}, nil
}

// Status reports where a wizard run currently is.
func (s *Service) Status(ctx context.Context, regID string) (Status, error) {
	reg, err := s.find(ctx, regID)
	if err != nil {
		return Status{}, err
	}
	return Status{State: reg.State, MemberID: reg.MemberID}, nil
}

func (s *Service) find(ctx context.Context, regID string) (Registration, error) {
	reg, err := s.states.Find(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Registration{}, dErrors.New(dErrors.CodeNotFound, "registration not found or expired")
		}
		return Registration{}, dErrors.Wrap(fmt.Errorf("find registration: %w", err),
			dErrors.CodeUnavailable, "could not load registration")
	}
	return reg, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.At = s.clock()
	event.RequestID = requestcontext.RequestID(ctx)
	event.DevicePlatform = requestcontext.ClientDevice(ctx).Platform
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "emit audit event",
			slog.String("event", event.Type),
			slog.Any("error", err),
		)
	}
}
