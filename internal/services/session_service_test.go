// internal/services/session_service_test.go
package services

import (
	"testing"

	"github.com/Corphon/storyteller/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_GetOrCreate(t *testing.T) {
	svc := NewSessionService(newTestDB(t))

	st1, err := svc.GetOrCreate("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", st1.SessionID)
	assert.Equal(t, 0, st1.SegmentSeq)

	st2, err := svc.GetOrCreate("s1")
	require.NoError(t, err)
	assert.Equal(t, st1.ID, st2.ID)
}

func TestSessionService_AppendSegmentSequence(t *testing.T) {
	svc := NewSessionService(newTestDB(t))

	idx1, err := svc.AppendSegment("s1", "第一段剧情")
	require.NoError(t, err)
	assert.Equal(t, 1, idx1)

	idx2, err := svc.AppendSegment("s1", "第二段剧情")
	require.NoError(t, err)
	assert.Equal(t, 2, idx2)

	// 其他会话的计数独立
	other, err := svc.AppendSegment("s2", "别的会话")
	require.NoError(t, err)
	assert.Equal(t, 1, other)

	st, err := svc.GetOrCreate("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.SegmentSeq)
	assert.Equal(t, 10, st.TotalWordCount) // 两段各 5 个字符
}

func TestSessionService_SequenceSurvivesDeletion(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)

	_, err := svc.AppendSegment("s1", "一")
	require.NoError(t, err)
	_, err = svc.AppendSegment("s1", "二")
	require.NoError(t, err)

	// 删掉全部历史段落后追加，序号继续递增而不是重新从计数开始
	require.NoError(t, db.Where("session_id = ?", "s1").Delete(&models.StorySegment{}).Error)

	idx, err := svc.AppendSegment("s1", "三")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestSessionService_RecentTextsOldestFirst(t *testing.T) {
	svc := NewSessionService(newTestDB(t))

	for _, text := range []string{"一", "二", "三", "四", "五"} {
		_, err := svc.AppendSegment("s1", text)
		require.NoError(t, err)
	}

	texts, err := svc.RecentTexts("s1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"三", "四", "五"}, texts)
}

func TestSessionService_SegmentIDFormat(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)

	_, err := svc.AppendSegment("sess", "文本")
	require.NoError(t, err)

	var seg models.StorySegment
	require.NoError(t, db.First(&seg).Error)
	assert.Equal(t, "sess_1", seg.SegmentID)
	assert.Equal(t, "sess", seg.SessionID)
}
