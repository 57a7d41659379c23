// internal/prompt/compile_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func leaf(identifier, content string, order int, enabled bool) *Node {
	extra := DefaultLeafFields()
	extra.InjectionOrder = order
	return NewPrompt("标题:"+identifier, content, "system", enabled, identifier, extra)
}

func TestCompileSystemPrompt_NilInputs(t *testing.T) {
	assert.Equal(t, "", CompileSystemPrompt(nil))
	assert.Equal(t, "", CompileSystemPrompt(&Preset{}))
}

func TestCompileSystemPrompt_BlockFormat(t *testing.T) {
	root := NewGroup("根", []*Node{leaf("intro", "你好", 0, true)}, true, "")
	got := CompileSystemPrompt(&Preset{Root: root})

	assert.Equal(t, "--- intro ---\n你好", got)
}

func TestCompileSystemPrompt_OrderedByInjectionOrder(t *testing.T) {
	root := NewGroup("根", []*Node{
		leaf("third", "c", 30, true),
		leaf("first", "a", 10, true),
		leaf("second", "b", 20, true),
	}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})

	blocks := strings.Split(got, "\n\n")
	assert.Equal(t, []string{
		"--- first ---\na",
		"--- second ---\nb",
		"--- third ---\nc",
	}, blocks)
}

func TestCompileSystemPrompt_StableOnEqualOrder(t *testing.T) {
	// 同序叶子保持树的遍历顺序
	root := NewGroup("根", []*Node{
		leaf("one", "1", 5, true),
		leaf("two", "2", 5, true),
		leaf("three", "3", 5, true),
	}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	assert.Equal(t, "--- one ---\n1\n\n--- two ---\n2\n\n--- three ---\n3", got)
}

func TestCompileSystemPrompt_DisabledLeafSkipped(t *testing.T) {
	root := NewGroup("根", []*Node{
		leaf("on", "开", 0, true),
		leaf("off", "关", 1, false),
	}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	assert.Contains(t, got, "on")
	assert.NotContains(t, got, "off")
}

func TestCompileSystemPrompt_DisabledGroupPrunesSubtree(t *testing.T) {
	// 组被禁用时子节点自身的 enabled 不能翻案
	inner := NewGroup("禁用组", []*Node{leaf("inside", "内容", 0, true)}, false, "")
	root := NewGroup("根", []*Node{inner, leaf("outside", "外部", 1, true)}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	assert.NotContains(t, got, "inside")
	assert.Contains(t, got, "outside")
}

func TestCompileSystemPrompt_BlankContentSkipped(t *testing.T) {
	root := NewGroup("根", []*Node{
		leaf("blank", "   \n\t  ", 0, true),
		leaf("real", "正文", 1, true),
	}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	assert.Equal(t, "--- real ---\n正文", got)
}

func TestCompileSystemPrompt_TitleFallbackWhenNoIdentifier(t *testing.T) {
	node := leaf("x", "内容", 0, true)
	node.Identifier = ""
	node.Title = "用标题"
	root := NewGroup("根", []*Node{node}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	assert.Equal(t, "--- 用标题 ---\n内容", got)
}

func TestCompileSystemPrompt_NestedGroups(t *testing.T) {
	inner := NewGroup("内层", []*Node{leaf("deep", "深层", 1, true)}, true, "")
	root := NewGroup("根", []*Node{leaf("top", "顶层", 2, true), inner}, true, "")

	got := CompileSystemPrompt(&Preset{Root: root})
	// 深层叶子 order 更小，排在前面
	assert.Equal(t, "--- deep ---\n深层\n\n--- top ---\n顶层", got)
}

func TestCompileSystemPrompt_DefaultPresetOutput(t *testing.T) {
	got := CompileSystemPrompt(DefaultPreset("出厂"))

	// 出厂预设只有 charPersonality 启用
	assert.Contains(t, got, "--- charPersonality ---")
	assert.NotContains(t, got, "sys_setting")
}
