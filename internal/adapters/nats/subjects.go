package natsadapter

import "strings"

// Subject layout:
//
//	squad.group.<groupID>.members        member location/mode changes
//	squad.group.<groupID>.meeting_point  freshly computed meeting points
const (
	subjectRoot        = "squad.group."
	channelMembers     = "members"
	channelMeetingPt   = "meeting_point"
	streamName         = "SQUAD_EVENTS"
	memberConsumerName = "meeting-point-recompute"
)

// Channels a WebSocket client may subscribe to.
var Channels = []string{channelMembers, channelMeetingPt}

// MembersSubject returns the subject for member updates in a group.
func MembersSubject(groupID string) string {
	return subjectRoot + groupID + "." + channelMembers
}

// MeetingPointSubject returns the subject for meeting points of a group.
func MeetingPointSubject(groupID string) string {
	return subjectRoot + groupID + "." + channelMeetingPt
}

// Subject returns the subject for a group and channel, or "" when the
// channel is unknown or the group id would escape its token.
func Subject(groupID, channel string) string {
	if groupID == "" || strings.ContainsAny(groupID, ".*> \t") {
		return ""
	}
	switch channel {
	case channelMembers:
		return MembersSubject(groupID)
	case channelMeetingPt:
		return MeetingPointSubject(groupID)
	default:
		return ""
	}
}
