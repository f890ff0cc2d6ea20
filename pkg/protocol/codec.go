package protocol

import (
	"encoding/json"
	"fmt"
)

// Decode parses one inbound frame into its typed command. The mapping covers
// the server-to-client direction; a cmd the client does not know decodes to
// *Unknown rather than an error, so a newer server never kills the session.
func Decode(data []byte) (Command, error) {
	var env struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	cmd := inboundCommand(env.Cmd)
	if cmd == nil {
		raw := make([]byte, len(data))
		copy(raw, data)
		return &Unknown{Cmd: env.Cmd, Raw: raw}, nil
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Cmd, err)
	}
	return cmd, nil
}

// inboundCommand returns a fresh value for a server-to-client command name,
// or nil if the name is not part of the protocol.
func inboundCommand(name string) Command {
	switch name {
	case CmdSession:
		return &SessionResponse{}
	case CmdClientUserInfo:
		return &ClientUserInfoResponse{}
	case CmdClientGroups:
		return &ClientGroupsResponse{}
	case CmdGetUser:
		return &GetUserResponse{}
	case CmdGetMemberIDs:
		return &GetMemberIDsResponse{}
	case CmdGetAllGroups:
		return &GetAllGroupsResponse{}
	case CmdGetGroupMsgs:
		return &GetGroupMsgsResponse{}
	case CmdGroupMsg:
		return &GroupMsgBroadcast{}
	case CmdSendAttachments:
		return &SendAttachmentsResponse{}
	case CmdJoinGroup:
		return &JoinGroupBroadcast{}
	case CmdGroup:
		return &GroupAnnounce{}
	case CmdDeleteGroup:
		return &DeleteGroup{}
	case CmdDeleteMsg:
		return &DeleteMsg{}
	case CmdEditAccount:
		return &EditAccountResponse{}
	case CmdGroupCodes:
		return &GroupCodesResponse{}
	case CmdRTUSM:
		return &RTUSM{}
	case CmdError:
		return &Error{}
	default:
		return nil
	}
}

// Encode serializes a command, splicing in the cmd discriminator.
func Encode(cmd Command) ([]byte, error) {
	if u, ok := cmd.(*Unknown); ok {
		return u.Raw, nil
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CmdName(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CmdName(), err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	name, err := json.Marshal(cmd.CmdName())
	if err != nil {
		return nil, err
	}
	fields["cmd"] = name

	return json.Marshal(fields)
}
