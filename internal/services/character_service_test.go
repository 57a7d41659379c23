// internal/services/character_service_test.go
package services

import (
	"testing"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterService_CreateConflict(t *testing.T) {
	svc := NewCharacterService(newTestDB(t))

	ch := &models.Character{CharacterID: "npc_1", Basic: []byte(`{"name":"甲"}`)}
	require.NoError(t, svc.Create(ch))
	assert.Equal(t, "npc", ch.Type)

	err := svc.Create(&models.Character{CharacterID: "npc_1"})
	assert.True(t, apperrors.IsConflictError(err))
}

func TestCharacterService_ImportBatchShapes(t *testing.T) {
	svc := NewCharacterService(newTestDB(t))

	// 单个对象
	count, err := svc.ImportBatch(decodeJSON(t, `{"character_id": "npc_a", "type": "npc", "basic": {"name": "甲"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// 列表 + 覆盖更新 + 自动生成编号
	count, err = svc.ImportBatch(decodeJSON(t, `[
		{"character_id": "npc_a", "basic": {"name": "甲（修订）"}},
		{"basic": {"name": "无编号自动生成"}}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := svc.List("")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	got, err := svc.Get("npc_a")
	require.NoError(t, err)
	assert.Contains(t, string(got.Basic), "修订")
}

func TestCharacterService_ListKeywordSearch(t *testing.T) {
	svc := NewCharacterService(newTestDB(t))

	require.NoError(t, svc.Create(&models.Character{CharacterID: "pc_hero", Basic: []byte(`{"name":"林仙"}`)}))
	require.NoError(t, svc.Create(&models.Character{CharacterID: "npc_guard", Basic: []byte(`{"name":"守卫"}`)}))

	rows, err := svc.List("林仙")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pc_hero", rows[0].CharacterID)
}

func TestCharacterService_PreferredFallsBackToFirst(t *testing.T) {
	svc := NewCharacterService(newTestDB(t))

	ch, err := svc.Preferred()
	require.NoError(t, err)
	assert.Nil(t, ch)

	require.NoError(t, svc.Create(&models.Character{CharacterID: "npc_only", Type: "npc"}))

	ch, err = svc.Preferred()
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, "npc_only", ch.CharacterID)
}

func TestCharacterService_ImportLegacyDataSection(t *testing.T) {
	svc := NewCharacterService(newTestDB(t))

	// 旧导出格式：基础信息在 data.tab_basic 下
	count, err := svc.ImportBatch(decodeJSON(t, `{
		"character_id": "pc_old",
		"type": "pc",
		"data": {"tab_basic": {"name": "旧档主角", "ability_tier": "B"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ch, err := svc.Get("pc_old")
	require.NoError(t, err)

	snap := Snapshot(ch)
	require.NotNil(t, snap)
	assert.Equal(t, "旧档主角", snap.Name)
	assert.Equal(t, "B", snap.AbilityTier)
}

func TestSnapshot_MetaTabBasicFallback(t *testing.T) {
	ch := &models.Character{
		CharacterID: "pc_1",
		Basic:       []byte(`{}`),
		Meta:        []byte(`{"tab_basic": {"name": "藏在meta里", "ability_tier": "A"}}`),
	}

	snap := Snapshot(ch)
	require.NotNil(t, snap)
	assert.Equal(t, "藏在meta里", snap.Name)
	assert.Equal(t, "A", snap.AbilityTier)
}

func TestSnapshot_NilCharacter(t *testing.T) {
	assert.Nil(t, Snapshot(nil))
}
