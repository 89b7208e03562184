package consult

import (
	"context"
	"sync"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

// Route is where the user goes after verification.
type Route string

const (
	RouteRegister Route = "register"
	RouteChat     Route = "chat"
)

type OTPStep string

const (
	StepMobile OTPStep = "mobile"
	StepCode   OTPStep = "code"
	StepDone   OTPStep = "done"
)

// OTPGate exchanges a mobile number and a one-time code for a token.
type OTPGate struct {
	api     OTPAPI
	session *identity.Session

	mu     sync.Mutex
	step   OTPStep
	mobile string
}

func NewOTPGate(api OTPAPI, session *identity.Session) *OTPGate {
	return &OTPGate{api: api, session: session, step: StepMobile}
}

// RequestOTP asks the server to send a code. The returned response only
// carries the code when the server echoes it for development.
func (g *OTPGate) RequestOTP(ctx context.Context, mobile string) (*client.SendOTPResponse, error) {
	resp, err := g.api.SendOTP(ctx, mobile)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.step = StepCode
	g.mobile = mobile
	g.mu.Unlock()
	return resp, nil
}

// Verify exchanges the code. On failure the gate stays on the code step.
func (g *OTPGate) Verify(ctx context.Context, mobile, code string) (Route, error) {
	resp, err := g.api.VerifyOTP(ctx, mobile, code)
	if err != nil {
		return "", err
	}

	if err := g.session.Begin(mobile, resp.AccessToken); err != nil {
		return "", err
	}

	g.mu.Lock()
	g.step = StepDone
	g.mobile = mobile
	g.mu.Unlock()

	if resp.IsNewUser {
		return RouteRegister, nil
	}
	return RouteChat, nil
}

func (g *OTPGate) Step() OTPStep {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step
}

func (g *OTPGate) Mobile() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mobile
}

// Back returns to mobile entry.
func (g *OTPGate) Back() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step = StepMobile
}

const OTPCells = 4

// OTPInput models the four single-digit code cells and their focus.
type OTPInput struct {
	cells [OTPCells]string
	focus int
}

// Input sets cell i from typed text, keeping only its last digit, and
// advances focus. Text without digits is ignored.
func (o *OTPInput) Input(i int, s string) {
	if i < 0 || i >= OTPCells {
		return
	}
	digit := ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digit = string(r)
		}
	}
	if digit == "" {
		return
	}

	o.cells[i] = digit
	if i < OTPCells-1 {
		o.focus = i + 1
	} else {
		o.focus = i
	}
}

// Backspace clears cell i, or moves to and clears the previous cell when i
// is already empty.
func (o *OTPInput) Backspace(i int) {
	if i < 0 || i >= OTPCells {
		return
	}
	if o.cells[i] != "" {
		o.cells[i] = ""
		o.focus = i
		return
	}
	if i > 0 {
		o.cells[i-1] = ""
		o.focus = i - 1
	}
}

// Paste distributes the digits of text from the first cell. Focus lands on
// the first empty cell, or the last cell when every cell is filled.
func (o *OTPInput) Paste(text string) {
	var digits []string
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = append(digits, string(r))
		}
		if len(digits) == OTPCells {
			break
		}
	}
	if len(digits) == 0 {
		return
	}

	for i := range o.cells {
		o.cells[i] = ""
		if i < len(digits) {
			o.cells[i] = digits[i]
		}
	}

	o.focus = OTPCells - 1
	for i, c := range o.cells {
		if c == "" {
			o.focus = i
			break
		}
	}
}

func (o *OTPInput) Cells() [OTPCells]string {
	return o.cells
}

func (o *OTPInput) Focus() int {
	return o.focus
}

func (o *OTPInput) Code() string {
	var code string
	for _, c := range o.cells {
		code += c
	}
	return code
}

func (o *OTPInput) Complete() bool {
	return len(o.Code()) == OTPCells
}

func (o *OTPInput) Reset() {
	*o = OTPInput{}
}
