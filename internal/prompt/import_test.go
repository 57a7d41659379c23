// internal/prompt/import_test.go
package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode 模拟 HTTP 层解出的泛型 JSON
func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestSanitizeNode_NonObjectDegrades(t *testing.T) {
	node := SanitizeNode("不是对象")

	require.NotNil(t, node)
	assert.Equal(t, KindGroup, node.Kind)
	assert.Equal(t, "无效节点", node.Title)
	assert.False(t, node.Enabled)
}

func TestSanitizeNode_PreservesIdentifierMintsID(t *testing.T) {
	raw := decode(t, `{"id": "node_stale12345", "identifier": "charPersonality", "content": "正文"}`)

	node := SanitizeNode(raw)

	assert.Equal(t, "charPersonality", node.Identifier)
	// 导入节点的 id 永远重新铸造，不信任载荷里的旧值
	assert.NotEqual(t, "node_stale12345", node.ID)
	assert.Equal(t, KindPrompt, node.Kind)
	assert.Equal(t, "正文", node.Content)
}

func TestSanitizeNode_ChildrenImpliesGroup(t *testing.T) {
	raw := decode(t, `{"title": "组", "children": [{"title": "叶子", "content": "x"}]}`)

	node := SanitizeNode(raw)

	require.Equal(t, KindGroup, node.Kind)
	require.Len(t, node.Children, 1)
	assert.Equal(t, KindPrompt, node.Children[0].Kind)
}

func TestSanitizeNode_TitleFallbackChain(t *testing.T) {
	withName := SanitizeNode(decode(t, `{"name": "起名字段", "content": "x"}`))
	assert.Equal(t, "起名字段", withName.Title)

	nameless := SanitizeNode(decode(t, `{"content": "x"}`))
	assert.Equal(t, "导入节点", nameless.Title)
}

func TestSanitizeNode_TextFallbackForContent(t *testing.T) {
	node := SanitizeNode(decode(t, `{"title": "a", "text": "备用内容字段"}`))
	assert.Equal(t, "备用内容字段", node.Content)
}

func TestSanitizeNode_NumericFieldsFromJSON(t *testing.T) {
	// JSON 数字解码成 float64，清洗层必须能转回 int
	node := SanitizeNode(decode(t, `{"content": "x", "injection_order": 42, "injection_depth": 7}`))

	assert.Equal(t, 42, node.InjectionOrder)
	assert.Equal(t, 7, node.InjectionDepth)
}

func TestImportPreset_FullExportWithRoot(t *testing.T) {
	raw := decode(t, `{"root": {"kind": "group", "title": "导出根", "children": []}}`)

	preset, warnings := ImportPreset(raw, "来自文件")

	assert.Empty(t, warnings)
	assert.Equal(t, "来自文件", preset.Name)
	assert.Equal(t, 1, preset.Version)
	assert.Equal(t, "import", preset.Meta["source"])
	assert.Equal(t, "导出根", preset.Root.Title)
}

func TestImportPreset_BareRootNode(t *testing.T) {
	raw := decode(t, `{"kind": "group", "title": "裸根", "children": [{"content": "a"}]}`)

	preset, _ := ImportPreset(raw, "hint")

	assert.Equal(t, "裸根", preset.Root.Title)
	require.Len(t, preset.Root.Children, 1)
}

func TestImportPreset_PromptsArrayField(t *testing.T) {
	raw := decode(t, `{"prompts": [{"content": "a"}, {"content": "b"}]}`)

	preset, _ := ImportPreset(raw, "酒馆卡")

	assert.Equal(t, "酒馆卡 Root", preset.Root.Title)
	require.Len(t, preset.Root.Children, 2)
}

func TestImportPreset_SinglePromptWrapped(t *testing.T) {
	raw := decode(t, `{"title": "孤prompt", "content": "正文"}`)

	preset, _ := ImportPreset(raw, "单条")

	require.Equal(t, KindGroup, preset.Root.Kind)
	assert.Equal(t, "单条 Root", preset.Root.Title)
	require.Len(t, preset.Root.Children, 1)
	assert.Equal(t, "孤prompt", preset.Root.Children[0].Title)
}

func TestImportPreset_TopLevelArray(t *testing.T) {
	raw := decode(t, `[{"content": "a"}, {"content": "b"}, {"content": "c"}]`)

	preset, _ := ImportPreset(raw, "数组")

	require.Len(t, preset.Root.Children, 3)
	assert.True(t, preset.Root.Enabled)
}

func TestImportPreset_UnrecognizedDegradesWithWarning(t *testing.T) {
	preset, warnings := ImportPreset("乱七八糟", "hint")

	require.NotNil(t, preset.Root)
	assert.Equal(t, "空导入", preset.Root.Title)
	assert.False(t, preset.Root.Enabled)
	assert.NotEmpty(t, warnings)
}

func TestImportPreset_WarningsCarryPath(t *testing.T) {
	raw := decode(t, `{"root": {"kind": "group", "children": ["坏节点", {"content": "好节点"}]}}`)

	preset, warnings := ImportPreset(raw, "hint")

	require.Len(t, preset.Root.Children, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "children[0]")
}

func TestImportPreset_EmptyNameHint(t *testing.T) {
	preset, _ := ImportPreset(decode(t, `[]`), "")
	assert.Equal(t, "导入预设", preset.Name)
}
