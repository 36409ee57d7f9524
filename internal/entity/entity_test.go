package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusFollowsTable(t *testing.T) {
	statuses := []SessionStatus{StatusPending, StatusAccepted, StatusCompleted, StatusRejected}
	actions := []SessionAction{ActionAccept, ActionReject, ActionComplete}

	want := map[SessionStatus]map[SessionAction]SessionStatus{
		StatusPending:  {ActionAccept: StatusAccepted, ActionReject: StatusRejected},
		StatusAccepted: {ActionComplete: StatusCompleted},
	}

	for _, from := range statuses {
		for _, action := range actions {
			to, ok := NextStatus(from, action)
			expected, allowed := want[from][action]
			assert.Equal(t, allowed, ok, "%s -%s->", from, action)
			assert.Equal(t, expected, to, "%s -%s->", from, action)
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, s := range []SessionStatus{StatusCompleted, StatusRejected} {
		assert.True(t, s.Terminal())
		for _, a := range []SessionAction{ActionAccept, ActionReject, ActionComplete} {
			_, ok := NextStatus(s, a)
			assert.False(t, ok)
		}
	}
	assert.False(t, StatusPending.Terminal())
	assert.False(t, SessionStatus("cancelled").Valid())
}

func TestParseSessionAction(t *testing.T) {
	a, err := ParseSessionAction(" Complete ")
	require.NoError(t, err)
	assert.Equal(t, ActionComplete, a)

	_, err = ParseSessionAction("cancel")
	assert.Error(t, err)
}

func TestSkillSetNormalises(t *testing.T) {
	s := ParseSkillSet(" Fotografia,gotowanie, ,fotografia ,Joga")

	assert.Equal(t, SkillSet{"fotografia", "gotowanie", "joga"}, s)
	assert.True(t, s.Contains("JOGA"))
	assert.False(t, s.Contains("taniec"))
	assert.Equal(t, "fotografia,gotowanie,joga", s.String())
}

func TestSkillSetScan(t *testing.T) {
	var s SkillSet
	require.NoError(t, s.Scan([]byte("taniec,angielski")))
	assert.Equal(t, SkillSet{"angielski", "taniec"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}

func TestBadgeSetAddIsIdempotent(t *testing.T) {
	var b BadgeSet
	assert.True(t, b.Add(BadgeTeachingMaster))
	assert.False(t, b.Add(BadgeTeachingMaster))
	assert.Equal(t, BadgeSet{BadgeTeachingMaster}, b)
}

func TestEmptySetsMarshalAsArrays(t *testing.T) {
	out, err := json.Marshal(User{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, []interface{}{}, decoded["badges"])
	assert.Equal(t, []interface{}{}, decoded["skills_offered"])
	assert.NotContains(t, decoded, "PasswordHash")
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, Category("").Valid())
	assert.True(t, CategoryTechnology.Valid())
	assert.False(t, Category("Sport").Valid())
	assert.Len(t, Categories(), 4)
}

func TestSessionCounterpart(t *testing.T) {
	s := Session{TeacherID: 1, StudentID: 2}
	assert.Equal(t, int64(2), s.Counterpart(1))
	assert.Equal(t, int64(1), s.Counterpart(2))
}
