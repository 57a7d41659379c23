// internal/services/dungeon_service_test.go
package services

import (
	"testing"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDungeonService_UpsertCreatesAndReplaces(t *testing.T) {
	svc := NewDungeonService(newTestDB(t))

	in := &models.Dungeon{
		DungeonID: "d1",
		Name:      "迷雾森林",
		LevelMin:  1,
		LevelMax:  5,
		Nodes: []models.DungeonNode{
			{NodeID: "n1", Name: "入口", IndexInDungeon: 0},
			{NodeID: "n2", Name: "深处", IndexInDungeon: 1},
		},
	}
	require.NoError(t, svc.Upsert(in))

	got, err := svc.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "迷雾森林", got.Name)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "n1", got.Nodes[0].NodeID)

	// 再次写入：节点整表重建
	in.Name = "迷雾森林（改）"
	in.Nodes = []models.DungeonNode{{NodeID: "n3", Name: "新入口", IndexInDungeon: 0}}
	require.NoError(t, svc.Upsert(in))

	got, err = svc.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "迷雾森林（改）", got.Name)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "n3", got.Nodes[0].NodeID)
}

func TestDungeonService_GetMissing(t *testing.T) {
	svc := NewDungeonService(newTestDB(t))
	_, err := svc.Get("d_missing")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestDungeonService_FirstAndFindNode(t *testing.T) {
	svc := NewDungeonService(newTestDB(t))

	first, err := svc.First()
	require.NoError(t, err)
	assert.Nil(t, first)

	require.NoError(t, svc.Upsert(&models.Dungeon{
		DungeonID: "d1",
		Name:      "副本一",
		Nodes:     []models.DungeonNode{{NodeID: "n1", Name: "节点一"}},
	}))

	first, err = svc.First()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "d1", first.DungeonID)
	require.Len(t, first.Nodes, 1)

	node, err := svc.FindNode("d1", "n1")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "节点一", node.Name)

	node, err = svc.FindNode("d1", "nope")
	require.NoError(t, err)
	assert.Nil(t, node)
}
