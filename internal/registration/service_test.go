package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"membergate/internal/allocator"
	"membergate/internal/allocator/store/counter"
	"membergate/internal/audit"
	"membergate/internal/identity/challenge"
	"membergate/internal/identity/otp"
	"membergate/internal/identity/session"
	"membergate/internal/identity/sms/mocks"
	"membergate/internal/member"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/requestcontext"
)

// The suite wires the orchestrator over the in-memory stores and a mocked
// SMS sender, so every scenario exercises the real provider, allocator, and
// state machine end to end.
type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockSender *mocks.MockSender

	states     *MemoryStateStore
	members    *member.MemoryStore
	counter    *counter.MemoryStore
	challenges *challenge.Verifier
	auditor    *audit.MemoryPublisher
	service    *Service

	now time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockSender = mocks.NewMockSender(s.ctrl)
	s.now = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.states = NewMemoryStateStore(WithClock(clock))
	s.members = member.NewMemory()
	s.counter = counter.NewMemory()

	var err error
	s.challenges, err = challenge.NewVerifier(challenge.NewMemory(challenge.WithClock(clock)), 2*time.Minute)
	s.Require().NoError(err)

	sessions := session.NewIssuer("test-signing-key", time.Hour, session.WithClock(clock))
	provider, err := otp.NewProvider(
		otp.NewMemory(otp.WithMemoryClock(clock)),
		s.challenges,
		s.mockSender,
		sessions,
		5*time.Minute,
		otp.WithCodeGenerator(func() (string, error) { return "123456", nil }),
		otp.WithClock(clock),
	)
	s.Require().NoError(err)

	alloc, err := allocator.New(s.counter, allocator.WithClock(clock))
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditor = audit.NewMemory(logger)

	s.service, err = NewService(s.states, s.members, provider, s.challenges, alloc, s.auditor,
		WithLogger(logger),
		WithServiceClock(clock),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectSMS(phone string) {
	s.mockSender.EXPECT().Send(gomock.Any(), phone, gomock.Any()).Return(nil)
}

// advanceToProfile walks a fresh run through phone and code submission.
func (s *ServiceSuite) advanceToProfile(phone string) string {
	ctx := context.Background()
	start, err := s.service.Start(ctx)
	s.Require().NoError(err)
	s.expectSMS("+91" + phone)
	_, err = s.service.SubmitPhone(ctx, start.RegistrationID, phone)
	s.Require().NoError(err)
	_, err = s.service.SubmitCode(ctx, start.RegistrationID, "123456")
	s.Require().NoError(err)
	return start.RegistrationID
}

func validProfile() Profile {
	return Profile{
		Title:     "Ms",
		Gender:    "Female",
		Surname:   "Sharma",
		FirstName: "Priya",
		City:      "Delhi",
		DOB:       Date{Day: 12, Month: 5, Year: 1990},
	}
}

func (s *ServiceSuite) TestNewService() {
	s.Run("nil state store returns error", func() {
		_, err := NewService(nil, s.members, s.service.identity, s.challenges, s.service.alloc, s.auditor)
		s.Error(err)
		s.Contains(err.Error(), "state store is required")
	})

	s.Run("nil member store returns error", func() {
		_, err := NewService(s.states, nil, s.service.identity, s.challenges, s.service.alloc, s.auditor)
		s.Error(err)
		s.Contains(err.Error(), "member store is required")
	})
}

func (s *ServiceSuite) TestFullRegistration() {
	ctx := context.Background()

	start, err := s.service.Start(ctx)
	s.Require().NoError(err)
	s.NotEmpty(start.RegistrationID)
	s.NotEmpty(start.Challenge)

	status, err := s.service.Status(ctx, start.RegistrationID)
	s.Require().NoError(err)
	s.Equal(StatePhone, status.State)

	s.expectSMS("+919876543210")
	phoneRes, err := s.service.SubmitPhone(ctx, start.RegistrationID, "9876543210")
	s.Require().NoError(err)
	s.Equal(StateOTP, phoneRes.State)

	codeRes, err := s.service.SubmitCode(ctx, start.RegistrationID, "123456")
	s.Require().NoError(err)
	s.Equal(StateProfile, codeRes.State)
	s.NotEmpty(codeRes.UserID)
	s.NotEmpty(codeRes.SessionToken)

	profileRes, err := s.service.SubmitProfile(ctx, start.RegistrationID, validProfile())
	s.Require().NoError(err)
	s.Equal("DF00000124", profileRes.MemberID)
	s.Equal("Ms Priya Sharma", profileRes.FullName)
	s.Equal("+919876543210", profileRes.PhoneNumber)

	status, err = s.service.Status(ctx, start.RegistrationID)
	s.Require().NoError(err)
	s.Equal(StateDone, status.State)
	s.Equal("DF00000124", status.MemberID)

	m, err := s.members.FindByUserID(ctx, codeRes.UserID)
	s.Require().NoError(err)
	s.Equal("DF00000124", m.MemberID)
	s.Equal("+919876543210", m.PhoneNumber)
	s.Equal("1990-05-12", m.DateOfBirth)
	s.Equal("Not provided", m.Organization)

	s.Contains(s.auditor.Types(), audit.EventMemberCreated)
}

func (s *ServiceSuite) TestSubmitPhone() {
	ctx := context.Background()

	s.Run("rejects an already registered phone before any code is sent", func() {
		err := s.members.Save(ctx, member.Member{
			UserID:      "existing-user",
			MemberID:    "DM00000923",
			PhoneNumber: "+919876543210",
		})
		s.Require().NoError(err)

		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		// No Send expectation: the mock controller fails the test if the
		// provider is reached.
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "9876543210")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(s.auditor.Types(), audit.EventDuplicatePhone)

		status, err := s.service.Status(ctx, start.RegistrationID)
		s.Require().NoError(err)
		s.Equal(StatePhone, status.State)
	})

	s.Run("rejects a malformed phone", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		for _, phone := range []string{"12345", "98765432101", "98765abcde", ""} {
			_, err = s.service.SubmitPhone(ctx, start.RegistrationID, phone)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "phone %q", phone)
		}
	})

	s.Run("allows changing the number from the code screen", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		s.expectSMS("+911111111111")
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "1111111111")
		s.Require().NoError(err)

		// A new challenge is needed for a second verification start.
		token, err := s.challenges.Issue(ctx)
		s.Require().NoError(err)
		reg, err := s.states.Find(ctx, start.RegistrationID)
		s.Require().NoError(err)
		reg.Challenge = token
		s.Require().NoError(s.states.Update(ctx, reg))

		s.expectSMS("+912222222222")
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "2222222222")
		s.Require().NoError(err)
	})

	s.Run("reissues the challenge when delivery fails", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		s.mockSender.EXPECT().
			Send(gomock.Any(), "+913333333333", gomock.Any()).
			Return(errors.New("gateway down"))
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "3333333333")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(s.auditor.Types(), audit.EventChallengeReissued)

		// The replacement challenge lets the retry go through.
		s.expectSMS("+913333333333")
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "3333333333")
		s.Require().NoError(err)
	})

	s.Run("unknown registration returns not found", func() {
		_, err := s.service.SubmitPhone(ctx, "no-such-run", "9876543210")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSubmitCode() {
	ctx := context.Background()

	s.Run("wrong code keeps the run on the code screen", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)
		s.expectSMS("+919876543210")
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "9876543210")
		s.Require().NoError(err)

		_, err = s.service.SubmitCode(ctx, start.RegistrationID, "000000")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		status, err := s.service.Status(ctx, start.RegistrationID)
		s.Require().NoError(err)
		s.Equal(StateOTP, status.State)

		// Correct code still works afterwards.
		res, err := s.service.SubmitCode(ctx, start.RegistrationID, "123456")
		s.Require().NoError(err)
		s.Equal(StateProfile, res.State)
	})

	s.Run("rejects a malformed code without touching the provider", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)
		s.expectSMS("+914444444444")
		_, err = s.service.SubmitPhone(ctx, start.RegistrationID, "4444444444")
		s.Require().NoError(err)

		_, err = s.service.SubmitCode(ctx, start.RegistrationID, "12345")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("code before phone is a state conflict", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		_, err = s.service.SubmitCode(ctx, start.RegistrationID, "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestSubmitProfile() {
	ctx := context.Background()

	s.Run("missing mandatory fields are rejected", func() {
		regID := s.advanceToProfile("9876543210")

		p := validProfile()
		p.City = ""
		_, err := s.service.SubmitProfile(ctx, regID, p)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		p = validProfile()
		p.DOB = Date{Day: 31, Month: 2, Year: 1990}
		_, err = s.service.SubmitProfile(ctx, regID, p)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		status, err := s.service.Status(ctx, regID)
		s.Require().NoError(err)
		s.Equal(StateProfile, status.State)
	})

	s.Run("empty title falls back to the default", func() {
		regID := s.advanceToProfile("5555555555")

		p := validProfile()
		p.Title = ""
		p.Gender = "Male"
		res, err := s.service.SubmitProfile(ctx, regID, p)
		s.Require().NoError(err)
		s.Equal("Mr Priya Sharma", res.FullName)
		s.Equal(byte('M'), res.MemberID[1])
	})

	s.Run("organization is kept when provided", func() {
		regID := s.advanceToProfile("6666666666")

		p := validProfile()
		p.Organization = "Acme Ltd"
		res, err := s.service.SubmitProfile(ctx, regID, p)
		s.Require().NoError(err)

		reg, err := s.states.Find(ctx, regID)
		s.Require().NoError(err)
		m, err := s.members.FindByUserID(ctx, reg.UserID)
		s.Require().NoError(err)
		s.Equal("Acme Ltd", m.Organization)
		s.Equal(res.MemberID, m.MemberID)
	})

	s.Run("rejects a session that belongs to another run", func() {
		regID := s.advanceToProfile("9999999999")

		ctxWithOtherUser := requestcontext.WithUserID(ctx, "someone-else")
		_, err := s.service.SubmitProfile(ctxWithOtherUser, regID, validProfile())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("profile before code confirmation is a state conflict", func() {
		start, err := s.service.Start(ctx)
		s.Require().NoError(err)

		_, err = s.service.SubmitProfile(ctx, start.RegistrationID, validProfile())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestAllocationFailure() {
	ctx := context.Background()

	// Rebuild the service over a counter that always conflicts so the retry
	// budget runs out.
	jammed := counter.NewMemory(counter.WithFaultHook(func(int) error {
		return fmt.Errorf("forced conflict")
	}))
	alloc, err := allocator.New(jammed,
		allocator.WithClock(func() time.Time { return s.now }),
		allocator.WithRetryBudget(2),
	)
	s.Require().NoError(err)
	svc, err := NewService(s.states, s.members, s.service.identity, s.challenges, alloc, s.auditor,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithServiceClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.service = svc

	regID := s.advanceToProfile("7777777777")

	_, err = s.service.SubmitProfile(ctx, regID, validProfile())
	s.Require().Error(err)
	s.True(errors.Is(err, allocator.ErrAllocationFailed))
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Contains(s.auditor.Types(), audit.EventAllocationFailed)

	// No member row was written and the run can resubmit.
	reg, findErr := s.states.Find(ctx, regID)
	s.Require().NoError(findErr)
	s.Equal(StateProfile, reg.State)
	_, findErr = s.members.FindByUserID(ctx, reg.UserID)
	s.Error(findErr)
}

func (s *ServiceSuite) TestDuplicateRace() {
	ctx := context.Background()

	regID := s.advanceToProfile("8888888888")

	// Simulate losing the race: the phone is registered by someone else
	// after the pre-check passed.
	reg, err := s.states.Find(ctx, regID)
	s.Require().NoError(err)
	err = s.members.Save(ctx, member.Member{
		UserID:      "rival-user",
		MemberID:    "DM00009924",
		PhoneNumber: reg.Phone,
	})
	s.Require().NoError(err)

	_, err = s.service.SubmitProfile(ctx, regID, validProfile())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(s.auditor.Types(), audit.EventMemberWriteFailed)

	// The ID minted for the losing run is burned: the next allocation skips
	// over it.
	s.Equal(int64(1), s.counter.Value())
}
