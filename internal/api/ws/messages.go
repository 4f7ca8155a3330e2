package ws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/domain/stream"
	"github.com/GriffinCanCode/accessproxy/internal/shared/utils"
)

// Inbound message types. The second group are the names sent by earlier
// viewer builds and are accepted as aliases.
const (
	TypeJoin        = "join"
	TypeStart       = "start-session"
	TypeInteraction = "user-interaction"
	TypeStop        = "stop-session"
	TypePing        = "ping"

	aliasJoin  = "join-employee-room"
	aliasStart = "start-platform-stream"
	aliasStop  = "stop-platform-stream"
)

// Outbound message types owned by the transport.
const (
	TypePong   = "pong"
	TypeJoined = "joined"
	TypeError  = "error"
)

var aliases = map[string]string{
	aliasJoin:  TypeJoin,
	aliasStart: TypeStart,
	aliasStop:  TypeStop,
}

// Message is the inbound envelope.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// canonicalType maps aliases to their canonical type.
func (m Message) canonicalType() string {
	if t, ok := aliases[m.Type]; ok {
		return t
	}
	return m.Type
}

// Envelope is the outbound frame.
type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorData is the payload of an error frame.
type ErrorData struct {
	Message string `json:"message"`
}

// userRef names the user a message is about. Older clients send
// employeeId instead of userId.
type userRef struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId"`
}

func (u userRef) user() string {
	if u.UserID != "" {
		return u.UserID
	}
	return u.EmployeeID
}

// JoinPayload is the data of a join message. A bare JSON string is also
// accepted as the user id.
type JoinPayload struct {
	userRef
}

// StartPayload is the data of a start-session message. Older clients send
// the platform record as stored (_id, platformName) and the operator as
// employee, with platformId alongside.
type StartPayload struct {
	userRef
	Platform   startPlatform    `json:"platform"`
	Identity   session.Identity `json:"identity"`
	PlatformID string           `json:"platformId"`
	Employee   *employeeRef     `json:"employee"`
	// AutoLogin defaults to true when absent.
	AutoLogin *bool `json:"autoLogin"`
}

type startPlatform struct {
	session.Platform
	LegacyID     string `json:"_id"`
	PlatformName string `json:"platformName"`
}

type employeeRef struct {
	ID       string          `json:"id"`
	LegacyID string          `json:"_id"`
	Name     json.RawMessage `json:"name"`
}

// displayName accepts a plain string or a {firstName, lastName} object.
func (e employeeRef) displayName() string {
	var plain string
	if json.Unmarshal(e.Name, &plain) == nil {
		return strings.TrimSpace(plain)
	}
	var parts struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if json.Unmarshal(e.Name, &parts) == nil {
		return strings.TrimSpace(parts.FirstName + " " + parts.LastName)
	}
	return ""
}

// resolve fills canonical fields from their older spellings.
func (p StartPayload) resolve() (session.Platform, session.Identity) {
	platform := p.Platform.Platform
	platform.ID = firstNonEmpty(platform.ID, p.Platform.LegacyID, p.PlatformID)
	platform.Name = firstNonEmpty(platform.Name, p.Platform.PlatformName)

	identity := p.Identity
	if p.Employee != nil {
		identity.ID = firstNonEmpty(identity.ID, p.Employee.ID, p.Employee.LegacyID)
		identity.DisplayName = firstNonEmpty(identity.DisplayName, p.Employee.displayName())
	}
	return platform, identity
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// InteractionPayload is the data of a user-interaction message.
type InteractionPayload struct {
	userRef
	Interaction stream.Interaction `json:"interaction"`
}

// StopPayload is the data of a stop-session message.
type StopPayload struct {
	userRef
}

func decodeJoin(raw json.RawMessage) (string, error) {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		bare = strings.TrimSpace(bare)
		return bare, utils.ValidateID(bare, "userId", true)
	}
	var p JoinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("invalid join payload: %w", err)
	}
	return p.user(), utils.ValidateID(p.user(), "userId", true)
}

func decodeStart(raw json.RawMessage) (stream.StartRequest, error) {
	var p StartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return stream.StartRequest{}, fmt.Errorf("invalid start payload: %w", err)
	}
	if err := utils.ValidateID(p.user(), "userId", true); err != nil {
		return stream.StartRequest{}, err
	}
	platform, identity := p.resolve()
	if err := utils.ValidateID(platform.ID, "platform id", false); err != nil {
		return stream.StartRequest{}, err
	}
	if err := utils.ValidateName(platform.Name, "platform name", false); err != nil {
		return stream.StartRequest{}, err
	}
	if err := utils.ValidatePlatformURL(platform.URL); err != nil {
		return stream.StartRequest{}, err
	}
	if err := utils.ValidateID(identity.ID, "identity id", false); err != nil {
		return stream.StartRequest{}, err
	}

	auto := true
	if p.AutoLogin != nil {
		auto = *p.AutoLogin
	}
	return stream.StartRequest{
		UserID:    p.user(),
		Platform:  platform,
		Identity:  identity,
		AutoLogin: auto,
	}, nil
}

func decodeInteraction(raw json.RawMessage) (string, stream.Interaction, error) {
	var p InteractionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", stream.Interaction{}, fmt.Errorf("invalid interaction payload: %w", err)
	}
	if err := utils.ValidateID(p.user(), "userId", true); err != nil {
		return "", stream.Interaction{}, err
	}
	if err := utils.ValidateText(p.Interaction.Text); err != nil {
		return "", stream.Interaction{}, err
	}
	if err := utils.ValidateKey(p.Interaction.Key); err != nil {
		return "", stream.Interaction{}, err
	}
	return p.user(), p.Interaction, nil
}

func decodeStop(raw json.RawMessage) (string, error) {
	var p StopPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("invalid stop payload: %w", err)
	}
	return p.user(), utils.ValidateID(p.user(), "userId", true)
}
