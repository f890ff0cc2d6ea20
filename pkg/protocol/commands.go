package protocol

// Command is implemented by every wire command. Each inbound/outbound JSON
// object carries a "cmd" discriminator naming its kind.
type Command interface {
	CmdName() string
}

// Command name constants
const (
	CmdSession         = "session"
	CmdClientUserInfo  = "client_user_info"
	CmdClientGroups    = "client_groups"
	CmdGetUser         = "get_user"
	CmdGetMemberIDs    = "get_member_ids"
	CmdGetAllGroups    = "get_all_groups"
	CmdGetGroupMsgs    = "get_group_msgs"
	CmdGroupMsg        = "group_msg"
	CmdSendAttachments = "send_attachments"
	CmdJoinGroup       = "join_group"
	CmdGroupCreate     = "group_create"
	CmdGroup           = "group"
	CmdDeleteGroup     = "delete_group"
	CmdDeleteMsg       = "delete_msg"
	CmdEditAccount     = "edit_account"
	CmdGetGroupCodes   = "get_group_codes"
	CmdGroupCodes      = "group_codes"
	CmdCreateGroupCode = "create_group_code"
	CmdDeleteGroupCode = "delete_group_code"
	CmdRTUSM           = "rtusm"
	CmdError           = "error"
)

// User is the wire representation of a user record. Identity fields are
// write-once; only status and pfp_name change after creation (via rtusm).
type User struct {
	UserID      uint64 `json:"user_id"`
	Username    string `json:"username"`
	Displayname string `json:"displayname"`
	Bio         string `json:"bio,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	PfpName     string `json:"pfp_name,omitempty"`
	Status      string `json:"status,omitempty"`
}

// GroupInfo is the wire representation of a group. Member ids are not carried
// here; they are loaded lazily via get_member_ids.
type GroupInfo struct {
	GroupID uint64 `json:"group_id"`
	OwnerID uint64 `json:"owner_id"`
	Name    string `json:"name"`
	Desc    string `json:"desc,omitempty"`
}

// Attachment describes one attachment of a message. Hash is empty until the
// server has confirmed storage of the uploaded bytes.
type Attachment struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Hash string `json:"hash,omitempty"`
}

// Message is the wire representation of a chat message.
type Message struct {
	MsgID       uint64       `json:"msg_id"`
	GroupID     uint64       `json:"group_id"`
	UserID      uint64       `json:"user_id"`
	Content     string       `json:"content"`
	Timestamp   int64        `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// InviteCode is a group-scoped invite. MaxUses of -1 means unlimited.
type InviteCode struct {
	Code    string `json:"code"`
	GroupID uint64 `json:"group_id,omitempty"`
	Uses    int    `json:"uses"`
	MaxUses int    `json:"max_uses"`
}

// SessionRequest authenticates with a previously issued credential token.
type SessionRequest struct {
	ID string `json:"id"`
}

// SessionResponse confirms the session.
type SessionResponse struct {
	ID string `json:"id"`
}

// ClientUserInfoRequest asks for the authenticated user's own record.
type ClientUserInfoRequest struct{}

// ClientUserInfoResponse carries the authenticated user's record inline.
type ClientUserInfoResponse struct {
	User
}

// ClientGroupsRequest asks for the groups the client is a member of.
type ClientGroupsRequest struct{}

// ClientGroupsResponse lists the client's groups.
type ClientGroupsResponse struct {
	Groups []GroupInfo `json:"groups"`
}

// GetUserRequest fetches user records by id, batched.
type GetUserRequest struct {
	UserIDs []uint64 `json:"user_ids"`
}

// GetUserResponse carries the requested user records.
type GetUserResponse struct {
	Users []User `json:"users"`
}

// GetMemberIDsRequest fetches the member id list of a group.
type GetMemberIDsRequest struct {
	GroupID uint64 `json:"group_id"`
}

// GetMemberIDsResponse carries a group's member ids.
type GetMemberIDsResponse struct {
	GroupID   uint64   `json:"group_id"`
	MemberIDs []uint64 `json:"member_ids"`
}

// GetAllGroupsRequest asks for the public group directory (join browser).
type GetAllGroupsRequest struct{}

// GetAllGroupsResponse lists joinable groups.
type GetAllGroupsResponse struct {
	Groups []GroupInfo `json:"groups"`
}

// GetGroupMsgsRequest fetches one page of history, offset counting already
// fetched older messages.
type GetGroupMsgsRequest struct {
	GroupID uint64 `json:"group_id"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

// GetGroupMsgsResponse carries one page of history, oldest first within the
// page.
type GetGroupMsgsResponse struct {
	GroupID  uint64    `json:"group_id"`
	Messages []Message `json:"messages"`
}

// GroupMsgRequest posts a message. Attachment metadata only; bytes follow over
// the upload side channel once a token arrives.
type GroupMsgRequest struct {
	GroupID     uint64       `json:"group_id"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// GroupMsgBroadcast is a message pushed to every member in real time.
type GroupMsgBroadcast struct {
	Message
}

// SendAttachmentsResponse carries the upload token for a pending post's
// attachments.
type SendAttachmentsResponse struct {
	UploadToken string `json:"upload_token"`
}

// JoinGroupRequest joins a group by invite code.
type JoinGroupRequest struct {
	Code string `json:"code"`
}

// JoinGroupBroadcast announces a user joining a group.
type JoinGroupBroadcast struct {
	GroupID uint64 `json:"group_id"`
	UserID  uint64 `json:"user_id"`
}

// GroupCreateRequest creates a new group owned by the caller.
type GroupCreateRequest struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// GroupAnnounce pushes a single new group (creation or join result).
type GroupAnnounce struct {
	GroupInfo
}

// DeleteGroup is both the client request and the server broadcast.
type DeleteGroup struct {
	GroupID uint64 `json:"group_id"`
}

// DeleteMsg is both the client request and the server broadcast.
type DeleteMsg struct {
	GroupID uint64 `json:"group_id"`
	MsgID   uint64 `json:"msg_id"`
}

// EditAccountRequest updates profile fields. NewPfp names the file to be
// uploaded; the response carries the token for the bytes.
type EditAccountRequest struct {
	NewUsername    string `json:"new_username,omitempty"`
	NewDisplayname string `json:"new_displayname,omitempty"`
	NewPfp         string `json:"new_pfp,omitempty"`
}

// EditAccountResponse carries the avatar upload token.
type EditAccountResponse struct {
	UploadToken string `json:"upload_token,omitempty"`
}

// GetGroupCodesRequest lists a group's invite codes.
type GetGroupCodesRequest struct {
	GroupID uint64 `json:"group_id"`
}

// GroupCodesResponse carries a group's invite codes.
type GroupCodesResponse struct {
	GroupID uint64       `json:"group_id"`
	Codes   []InviteCode `json:"codes"`
}

// CreateGroupCodeRequest mints an invite code. MaxUses of -1 means unlimited.
type CreateGroupCodeRequest struct {
	GroupID uint64 `json:"group_id"`
	MaxUses int    `json:"max_uses"`
}

// DeleteGroupCodeRequest revokes an invite code.
type DeleteGroupCodeRequest struct {
	GroupID uint64 `json:"group_id"`
	Code    string `json:"code"`
}

// RTUSM is a real-time user state push (presence and/or avatar change).
type RTUSM struct {
	UserID  uint64  `json:"user_id"`
	Status  *string `json:"status,omitempty"`
	PfpName *string `json:"pfp_name,omitempty"`
}

// Error reports a server-side rejection of the client's previous request.
type Error struct {
	ErrorMsg string `json:"error_msg"`
}

// Unknown preserves a command the client does not recognize.
type Unknown struct {
	Cmd string
	Raw []byte
}

func (SessionRequest) CmdName() string          { return CmdSession }
func (SessionResponse) CmdName() string         { return CmdSession }
func (ClientUserInfoRequest) CmdName() string   { return CmdClientUserInfo }
func (ClientUserInfoResponse) CmdName() string  { return CmdClientUserInfo }
func (ClientGroupsRequest) CmdName() string     { return CmdClientGroups }
func (ClientGroupsResponse) CmdName() string    { return CmdClientGroups }
func (GetUserRequest) CmdName() string          { return CmdGetUser }
func (GetUserResponse) CmdName() string         { return CmdGetUser }
func (GetMemberIDsRequest) CmdName() string     { return CmdGetMemberIDs }
func (GetMemberIDsResponse) CmdName() string    { return CmdGetMemberIDs }
func (GetAllGroupsRequest) CmdName() string     { return CmdGetAllGroups }
func (GetAllGroupsResponse) CmdName() string    { return CmdGetAllGroups }
func (GetGroupMsgsRequest) CmdName() string     { return CmdGetGroupMsgs }
func (GetGroupMsgsResponse) CmdName() string    { return CmdGetGroupMsgs }
func (GroupMsgRequest) CmdName() string         { return CmdGroupMsg }
func (GroupMsgBroadcast) CmdName() string       { return CmdGroupMsg }
func (SendAttachmentsResponse) CmdName() string { return CmdSendAttachments }
func (JoinGroupRequest) CmdName() string        { return CmdJoinGroup }
func (JoinGroupBroadcast) CmdName() string      { return CmdJoinGroup }
func (GroupCreateRequest) CmdName() string      { return CmdGroupCreate }
func (GroupAnnounce) CmdName() string           { return CmdGroup }
func (DeleteGroup) CmdName() string             { return CmdDeleteGroup }
func (DeleteMsg) CmdName() string               { return CmdDeleteMsg }
func (EditAccountRequest) CmdName() string      { return CmdEditAccount }
func (EditAccountResponse) CmdName() string     { return CmdEditAccount }
func (GetGroupCodesRequest) CmdName() string    { return CmdGetGroupCodes }
func (GroupCodesResponse) CmdName() string      { return CmdGroupCodes }
func (CreateGroupCodeRequest) CmdName() string  { return CmdCreateGroupCode }
func (DeleteGroupCodeRequest) CmdName() string  { return CmdDeleteGroupCode }
func (RTUSM) CmdName() string                   { return CmdRTUSM }
func (Error) CmdName() string                   { return CmdError }
func (u Unknown) CmdName() string               { return u.Cmd }
