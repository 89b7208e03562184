package client

import "time"

// Status is the readiness of a user's precomputed context.
type Status string

const (
	StatusChecking   Status = "checking"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Terminal reports whether polling should stop.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

type Persona string

const (
	PersonaMaya   Persona = "maya"
	PersonaGuruji Persona = "guruji"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type VerifyResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IsNewUser   bool   `json:"is_new_user"`
}

// Profile is the registration payload.
type Profile struct {
	Mobile       string `json:"mobile" yaml:"mobile"`
	Name         string `json:"name" yaml:"name"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	Gender       string `json:"gender" yaml:"gender"`
	DateOfBirth  string `json:"date_of_birth" yaml:"date_of_birth"`
	TimeOfBirth  string `json:"time_of_birth" yaml:"time_of_birth"`
	PlaceOfBirth string `json:"place_of_birth" yaml:"place_of_birth"`
	Latitude     string `json:"latitude" yaml:"latitude"`
	Longitude    string `json:"longitude" yaml:"longitude"`
	Country      string `json:"country" yaml:"country"`
	State        string `json:"state" yaml:"state"`
	ChartStyle   string `json:"chart_style" yaml:"chart_style"`
}

type RegisterResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Profile
}

type StatusResponse struct {
	Status        Status       `json:"status"`
	WalletBalance *float64     `json:"wallet_balance,omitempty"`
	UserProfile   *UserProfile `json:"user_profile,omitempty"`
}

// Turn is a prior message sent as chat history.
type Turn struct {
	Role      Role    `json:"role"`
	Assistant Persona `json:"assistant,omitempty"`
	Content   string  `json:"content"`
}

type ChatRequest struct {
	Mobile    string `json:"mobile"`
	Message   string `json:"message"`
	History   []Turn `json:"history"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Answer        string         `json:"answer"`
	Assistant     Persona        `json:"assistant"`
	Metrics       map[string]any `json:"metrics,omitempty"`
	Context       string         `json:"context,omitempty"`
	WalletBalance *float64       `json:"wallet_balance,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`
	MayaJSON      map[string]any `json:"maya_json,omitempty"`
	SessionID     string         `json:"session_id"`
}

type EndChatResponse struct {
	Summary   string `json:"summary"`
	SessionID string `json:"session_id"`
}

type StoredMessage struct {
	Role      Role      `json:"role"`
	Assistant Persona   `json:"assistant,omitempty"`
	Content   string    `json:"content"`
	Amount    *float64  `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummarized marks a stored session that has been ended and no longer
// accepts messages.
const SessionSummarized = "summarized"

type StoredSession struct {
	SessionID string          `json:"session_id"`
	Topic     string          `json:"topic"`
	Status    string          `json:"status"`
	Summary   string          `json:"summary,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Messages  []StoredMessage `json:"messages"`
}

func (s StoredSession) Open() bool { return s.Status != SessionSummarized }

type FeedbackRequest struct {
	Mobile    string `json:"mobile"`
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

type Transaction struct {
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const RechargeSuccess = "success"

type RechargeResponse struct {
	Status    string   `json:"status"`
	Balance   *float64 `json:"balance,omitempty"`
	Reference string   `json:"reference,omitempty"`
}

// Admin

type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AdminUser struct {
	Mobile       string    `json:"mobile"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Status       Status    `json:"status"`
	Balance      float64   `json:"balance"`
	SessionCount int       `json:"sessionCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AdminUserPage struct {
	Items []AdminUser `json:"items"`
	Total int         `json:"total"`
}

type AdminFeedback struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

type AdminUserDetail struct {
	User     AdminUser       `json:"user"`
	Profile  *Profile        `json:"profile,omitempty"`
	Balance  float64         `json:"balance"`
	Sessions []StoredSession `json:"sessions"`
	Feedback []AdminFeedback `json:"feedback"`
}

type Prompt struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RAGDocument struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Characters int       `json:"characters"`
	Chunks     int       `json:"chunks"`
	CreatedAt  time.Time `json:"createdAt"`
}

type RAGChunk struct {
	Index      int     `json:"index"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

type RAGChatResponse struct {
	Answer  string     `json:"answer"`
	Context string     `json:"context"`
	Chunks  []RAGChunk `json:"chunks"`
}
