package client

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wrenchat/wren/pkg/protocol"
)

// Group is the client-side record of a group. Member ids start empty and are
// populated lazily on first selection; members reference users by id only,
// the Store is the sole place translating id to record.
type Group struct {
	ID      uint64
	OwnerID uint64
	Name    string
	Desc    string

	// MembersLoaded is set once get_member_ids has returned for this group.
	MembersLoaded bool

	History *History

	memberIDs map[uint64]struct{}

	// membersRequested is set once get_member_ids has been sent, so a
	// re-select before the response doesn't fetch twice.
	membersRequested bool
}

// HasMember reports whether the user id is in the member set.
func (g *Group) HasMember(id uint64) bool {
	_, ok := g.memberIDs[id]
	return ok
}

// MemberIDs returns the member set in ascending order.
func (g *Group) MemberIDs() []uint64 {
	ids := make([]uint64, 0, len(g.memberIDs))
	for id := range g.memberIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Group) addMember(id uint64) bool {
	if _, ok := g.memberIDs[id]; ok {
		return false
	}
	g.memberIDs[id] = struct{}{}
	return true
}

// Store is the single source of truth for identity data: user-id to User and
// group-id to Group. All command handling runs on one event loop, so no
// locking is needed here.
type Store struct {
	users  map[uint64]*protocol.User
	groups map[uint64]*Group

	// current is the selected group id, 0 when none. At most one group is
	// current at a time.
	current uint64

	// pendingUsers are ids with a get_user already in flight, so overlapping
	// handlers don't request the same record twice.
	pendingUsers map[uint64]struct{}

	// browseOwners are owner ids shown as placeholders in an open
	// group-browsing view, patched when the record lands.
	browseOwners map[uint64]struct{}

	view View
	log  zerolog.Logger
}

// NewStore creates an empty entity store notifying the given view.
func NewStore(view View, logger zerolog.Logger) *Store {
	return &Store{
		users:        make(map[uint64]*protocol.User),
		groups:       make(map[uint64]*Group),
		pendingUsers: make(map[uint64]struct{}),
		browseOwners: make(map[uint64]struct{}),
		view:         view,
		log:          logger.With().Str("component", "store").Logger(),
	}
}

// User returns the stored record for id, if present.
func (s *Store) User(id uint64) (*protocol.User, bool) {
	u, ok := s.users[id]
	return u, ok
}

// ResolveUser returns the stored record for id, or a placeholder identity
// carrying the id as display name. The placeholder is not stored; callers
// re-render once the real record lands via UpsertUser.
func (s *Store) ResolveUser(id uint64) *protocol.User {
	if u, ok := s.users[id]; ok {
		return u
	}
	return &protocol.User{
		UserID:      id,
		Displayname: strconv.FormatUint(id, 10),
	}
}

// UpsertUser inserts a user record. Identity fields are write-once: if the id
// already exists the stored record is left untouched and returned. A new
// record triggers the resolution pass over every structure holding a forward
// reference to the id.
func (s *Store) UpsertUser(u protocol.User) (*protocol.User, bool) {
	if existing, ok := s.users[u.UserID]; ok {
		return existing, false
	}

	stored := new(protocol.User)
	*stored = u
	s.users[u.UserID] = stored
	delete(s.pendingUsers, u.UserID)

	s.onUserResolved(stored)
	return stored, true
}

// onUserResolved patches every placeholder referencing the newly arrived
// user: group member panes, rendered message rows, and browse-owner rows.
func (s *Store) onUserResolved(u *protocol.User) {
	for _, g := range s.groups {
		if g.HasMember(u.UserID) {
			s.view.MemberAdded(g.ID, u)
		}
	}

	s.view.UserPatched(u)

	if _, ok := s.browseOwners[u.UserID]; ok {
		delete(s.browseOwners, u.UserID)
		s.view.BrowseOwnerResolved(u.UserID, u)
	}
}

// ApplyStatusUpdate applies a real-time presence/avatar push. This is the
// only path that mutates a User after creation.
func (s *Store) ApplyStatusUpdate(id uint64, status, pfpName *string) *protocol.User {
	u, ok := s.users[id]
	if !ok {
		s.log.Warn().Uint64("user_id", id).Msg("rtusm for unknown user")
		return nil
	}
	if status != nil {
		u.Status = *status
	}
	if pfpName != nil {
		u.PfpName = *pfpName
	}
	s.view.UserPatched(u)
	return u
}

// Group returns the stored group for id, if present.
func (s *Store) Group(id uint64) (*Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// Groups returns all groups in ascending id order.
func (s *Store) Groups() []*Group {
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpsertGroup inserts a group. Idempotent by id: a duplicate insert leaves
// the stored record (and its message history) untouched.
func (s *Store) UpsertGroup(info protocol.GroupInfo) (*Group, bool) {
	if existing, ok := s.groups[info.GroupID]; ok {
		return existing, false
	}

	g := &Group{
		ID:        info.GroupID,
		OwnerID:   info.OwnerID,
		Name:      info.Name,
		Desc:      info.Desc,
		History:   NewHistory(),
		memberIDs: make(map[uint64]struct{}),
	}
	s.groups[info.GroupID] = g
	s.view.GroupAdded(g)
	return g, true
}

// AddMember adds a user id to a group's member set. If the record is already
// known the member pane is updated immediately; otherwise the caller fetches
// the user and the resolution pass attaches it later.
func (s *Store) AddMember(g *Group, userID uint64) {
	if !g.addMember(userID) {
		return
	}
	if u, ok := s.users[userID]; ok {
		s.view.MemberAdded(g.ID, u)
	}
}

// CurrentGroup returns the selected group, or nil.
func (s *Store) CurrentGroup() *Group {
	if s.current == 0 {
		return nil
	}
	return s.groups[s.current]
}

// SelectGroup marks g current and returns the previously selected group (nil
// if none). The view detaches the previous group's panes and pagination
// listener before attaching g's.
func (s *Store) SelectGroup(g *Group) *Group {
	prev := s.CurrentGroup()
	s.current = g.ID
	s.view.GroupSelected(prev, g)
	return prev
}

// ClearSelection drops the current selection and detaches both panes.
func (s *Store) ClearSelection() {
	if s.current == 0 {
		return
	}
	s.current = 0
	s.view.SelectionCleared()
}

// RemoveGroup evicts a group. If it was selected, the selection is cleared
// and the view detaches the message and member panes.
func (s *Store) RemoveGroup(id uint64) {
	if _, ok := s.groups[id]; !ok {
		return
	}
	if s.current == id {
		s.ClearSelection()
	}
	delete(s.groups, id)
	s.view.GroupRemoved(id)
}

// MissingUsers filters ids down to those neither stored nor already being
// fetched, marking the survivors in flight. The result is the deduplicated
// batch for one get_user request.
func (s *Store) MissingUsers(ids []uint64) []uint64 {
	var missing []uint64
	for _, id := range ids {
		if _, ok := s.users[id]; ok {
			continue
		}
		if _, ok := s.pendingUsers[id]; ok {
			continue
		}
		s.pendingUsers[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing
}

// TrackBrowseOwner records that the browse view shows a placeholder for this
// owner id.
func (s *Store) TrackBrowseOwner(id uint64) {
	s.browseOwners[id] = struct{}{}
}

// ClearPendingFetches forgets in-flight get_user ids. Called on disconnect:
// the requests may have been lost, and the ids must be fetchable again.
func (s *Store) ClearPendingFetches() {
	s.pendingUsers = make(map[uint64]struct{})
}
