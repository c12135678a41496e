package extension

// Message types for the page ↔ bridge protocol. These mirror the
// window.postMessage payloads the web UI sends.
const (
	TypeAccessRequest  = "ACCESS_REQUEST"
	TypeAccessResponse = "ACCESS_RESPONSE"
	TypeCheck          = "CHECK"
	TypeInstalled      = "INSTALLED"
)

// Message types for the bridge ↔ background agent protocol.
const (
	TypeInjectCookiesAndOpen = "INJECT_COOKIES_AND_OPEN"
	TypePing                 = "PING"
)

// PageMessage is the flat JSON envelope exchanged with the page. Fields
// are populated per message type.
type PageMessage struct {
	Type    string `json:"type"`
	ToolID  string `json:"toolId,omitempty"`
	URL     string `json:"url,omitempty"`
	Cookies string `json:"cookies,omitempty"` // transport-encoded
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AgentRequest is a message from the bridge to the background agent.
type AgentRequest struct {
	Type    string `json:"type"`
	ToolURL string `json:"toolUrl,omitempty"`
	Cookies string `json:"cookies,omitempty"`
}

// CookieResult is the per-cookie outcome of one injection attempt.
type CookieResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AgentReply is the agent's terminal answer for one request. For PING only
// Success is meaningful.
type AgentReply struct {
	Success       bool           `json:"success"`
	TabID         int            `json:"tabId,omitempty"`
	InjectedCount int            `json:"injectedCount"`
	TotalCookies  int            `json:"totalCookies"`
	Results       []CookieResult `json:"results,omitempty"`
	Error         string         `json:"error,omitempty"`
}

func accessResponse(success bool, errMsg string) PageMessage {
	return PageMessage{Type: TypeAccessResponse, Success: &success, Error: errMsg}
}
