package room

const systemUsername = "SYSTEM"

const (
	EventUpdateUsers    = "update-users"
	EventUpdatePlaylist = "update-playlist"
	EventReceiveChat    = "receive-chat"
	EventApplySync      = "apply-sync"
	EventShowEmoji      = "show-emoji"
)

const ActionLoad = "load"

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type UsersPayload struct {
	Users []string `json:"users"`
	Host  string   `json:"host"`
}

type ChatPayload struct {
	Username string `json:"username"`
	Msg      string `json:"msg"`
}
