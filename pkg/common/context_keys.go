package common

type contextKey string

const (
	ClientIPContextKey  contextKey = "client_ip"
	UserAgentContextKey contextKey = "user_agent"
)

func (c contextKey) String() string {
	return string(c)
}
