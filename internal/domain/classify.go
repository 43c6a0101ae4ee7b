package domain

import "time"

// GroupSelector picks which records take part in a classification pass.
// The zero value selects every group.
type GroupSelector struct {
	all     bool
	groupID string
}

// AllGroups selects the aggregate group spanning every source.
func AllGroups() GroupSelector { return GroupSelector{all: true} }

// Group selects records whose group id equals id.
func Group(id string) GroupSelector { return GroupSelector{groupID: id} }

// IsAll reports whether the selector spans every group.
func (g GroupSelector) IsAll() bool { return g.all || g.groupID == "" }

// GroupID returns the selected group id, empty for AllGroups.
func (g GroupSelector) GroupID() string {
	if g.IsAll() {
		return ""
	}
	return g.groupID
}

func (g GroupSelector) matches(r SensorRecord) bool {
	return g.IsAll() || r.GroupID == g.groupID
}

// Member is one sensor inside a SensorSet.
type Member struct {
	Name        SensorName
	LastSeenRaw string
	LastSeenAt  time.Time
	AdapterID   string
}

type memberKey struct {
	name     string
	lastSeen string
	adapter  string
}

func (m Member) key() memberKey {
	return memberKey{name: m.Name.Key(), lastSeen: m.LastSeenRaw, adapter: m.AdapterID}
}

// SensorSet is an unordered set of members, unique by name, last-seen and adapter.
type SensorSet struct {
	members map[memberKey]Member
}

func newSensorSet() *SensorSet {
	return &SensorSet{members: make(map[memberKey]Member)}
}

func (s *SensorSet) add(m Member) {
	s.members[m.key()] = m
}

// Len returns the number of distinct members.
func (s *SensorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Members returns a copy of the members in no particular order.
func (s *SensorSet) Members() []Member {
	if s == nil {
		return nil
	}
	out := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	return out
}

// Contains reports whether m is a member.
func (s *SensorSet) Contains(m Member) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[m.key()]
	return ok
}

// Counts is the aggregate of one pass.
type Counts struct {
	Operational    int
	NonOperational int
	Degraded       int
}

// Total returns the sum over all classes.
func (c Counts) Total() int { return c.Operational + c.NonOperational + c.Degraded }

// Of returns the count for one class.
func (c Counts) Of(class StatusClass) int {
	switch class {
	case Operational:
		return c.Operational
	case NonOperational:
		return c.NonOperational
	case Degraded:
		return c.Degraded
	default:
		return 0
	}
}

// Classification is the immutable result of one pass. Counts are per record,
// so two records collapsing into one set member still count twice.
type Classification struct {
	Selector   GroupSelector
	Counts     Counts
	ComputedAt time.Time
	sets       map[StatusClass]*SensorSet
}

// Set returns the members of one class. The returned set must not be modified.
func (c *Classification) Set(class StatusClass) *SensorSet {
	if c == nil {
		return nil
	}
	return c.sets[class]
}

// Classify partitions the records selected by sel into the three status sets.
// Any unknown status code aborts the pass without a partial result.
func Classify(records []SensorRecord, sel GroupSelector) (*Classification, error) {
	out := &Classification{
		Selector:   sel,
		ComputedAt: time.Now(),
		sets: map[StatusClass]*SensorSet{
			Operational:    newSensorSet(),
			NonOperational: newSensorSet(),
			Degraded:       newSensorSet(),
		},
	}

	for _, r := range records {
		if !sel.matches(r) {
			continue
		}
		class, err := ClassFromCode(r.Status)
		if err != nil {
			return nil, err
		}
		out.sets[class].add(Member{
			Name:        r.Name,
			LastSeenRaw: r.LastSeenRaw,
			LastSeenAt:  r.LastSeenAt,
			AdapterID:   r.AdapterID,
		})
		switch class {
		case Operational:
			out.Counts.Operational++
		case NonOperational:
			out.Counts.NonOperational++
		case Degraded:
			out.Counts.Degraded++
		}
	}
	return out, nil
}
