package consult

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/geo"
	"github.com/astroconsult/consult-server-go/internal/identity"
	"github.com/astroconsult/consult-server-go/internal/util"
)

type RegistrationState string

const (
	RegistrationEditing    RegistrationState = "editing"
	RegistrationSubmitting RegistrationState = "submitting"
	RegistrationSucceeded  RegistrationState = "succeeded"
	RegistrationAbandoned  RegistrationState = "abandoned"
)

// Registration collects the birth profile of a new user and submits it
// once. The form is abandoned when it is not completed in time.
type Registration struct {
	api       RegisterAPI
	session   *identity.Session
	timeout   time.Duration
	onAbandon func()

	mu      sync.Mutex
	state   RegistrationState
	profile client.Profile
	timer   *time.Timer
}

func NewRegistration(api RegisterAPI, session *identity.Session, timeout time.Duration, onAbandon func()) *Registration {
	return &Registration{
		api:       api,
		session:   session,
		timeout:   timeout,
		onAbandon: onAbandon,
		state:     RegistrationEditing,
		profile:   client.Profile{Mobile: session.Mobile()},
	}
}

// Start arms the abandonment timer.
func (r *Registration) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.timeout, r.abandon)
}

// Stop disarms the abandonment timer.
func (r *Registration) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Registration) abandon() {
	r.mu.Lock()
	if r.state == RegistrationSucceeded {
		r.mu.Unlock()
		return
	}
	r.state = RegistrationAbandoned
	r.timer = nil
	r.mu.Unlock()

	log.Info().Str("mobile", util.MaskMobile(r.session.Mobile())).Msg("registration abandoned")
	if r.onAbandon != nil {
		r.onAbandon()
	}
}

func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Profile returns the values entered so far, including after a failed
// submission.
func (r *Registration) Profile() client.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}

// SelectPlace fills the place fields from a resolved place.
func (r *Registration) SelectPlace(p geo.Place) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profile.PlaceOfBirth = p.Name
	r.profile.Latitude = p.LatitudeDMS()
	r.profile.Longitude = p.LongitudeDMS()
	r.profile.Country = p.Country
	r.profile.State = p.State
}

// Attach routes selections from resolver into the form.
func (r *Registration) Attach(resolver geo.PlaceResolver) {
	resolver.OnPlaceSelected(r.SelectPlace)
}

// Submit validates and registers p. On success the returned token becomes
// the session's identity.
func (r *Registration) Submit(ctx context.Context, p client.Profile) error {
	r.mu.Lock()
	if r.state != RegistrationEditing {
		state := r.state
		r.mu.Unlock()
		if state == RegistrationSubmitting {
			return ErrBusy
		}
		return ErrInvalidState
	}
	if p.Mobile == "" {
		p.Mobile = r.session.Mobile()
	}
	r.profile = p
	r.mu.Unlock()

	if err := ValidateProfile(p); err != nil {
		return err
	}

	r.setState(RegistrationSubmitting)
	resp, err := r.api.Register(ctx, p)
	if err != nil {
		r.setState(RegistrationEditing)
		return err
	}

	if err := r.session.Begin(p.Mobile, resp.AccessToken); err != nil {
		r.setState(RegistrationEditing)
		return err
	}
	if err := r.session.SetUserName(p.Name); err != nil {
		log.Warn().Err(err).Msg("failed to store user name")
	}

	r.setState(RegistrationSucceeded)
	r.Stop()
	return nil
}

func (r *Registration) setState(s RegistrationState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RegistrationAbandoned {
		r.state = s
	}
}

// ValidateProfile applies the same rules as the server so most mistakes
// never leave the client.
func ValidateProfile(p client.Profile) error {
	if err := client.ValidateMobile(p.Mobile); err != nil {
		return err
	}
	if err := requireField("name", p.Name, "Name is required"); err != nil {
		return err
	}
	if !util.IsValidEmail(p.Email) {
		return &client.ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	if p.Gender == "" || !util.IsValidEnum(p.Gender, util.Genders) {
		return &client.ValidationError{Field: "gender", Message: "Gender must be Male or Female"}
	}
	if !util.IsValidDate(p.DateOfBirth) {
		return &client.ValidationError{Field: "date_of_birth", Message: "Date of birth must be YYYY-MM-DD"}
	}
	if !util.IsValidClock(p.TimeOfBirth) {
		return &client.ValidationError{Field: "time_of_birth", Message: "Time of birth must be HH:MM"}
	}
	if err := requireField("place_of_birth", p.PlaceOfBirth, "Place of birth is required"); err != nil {
		return err
	}
	if p.ChartStyle == "" || !util.IsValidEnum(p.ChartStyle, util.ChartStyles) {
		return &client.ValidationError{Field: "chart_style", Message: "Please choose a chart style"}
	}
	return nil
}

func requireField(field, value, message string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &client.ValidationError{Field: field, Message: message}
}
