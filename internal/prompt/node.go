// internal/prompt/node.go
package prompt

import (
	"strings"

	"github.com/google/uuid"
)

// 节点类型常量
const (
	KindGroup  = "group"
	KindPrompt = "prompt"
)

// Node 预设提示词树的节点，分为两种形态：
// - group: 容器节点，只承载子节点
// - prompt: 内容节点，承载最终注入的提示词文本
type Node struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Enabled    bool   `json:"enabled"`

	// group 专用：子节点按插入顺序保存（仅影响展示，编译顺序由 injection_order 决定）
	Children []*Node `json:"children,omitempty"`

	// prompt 专用字段
	Role              string                 `json:"role,omitempty"`
	Content           string                 `json:"content,omitempty"`
	SystemPrompt      bool                   `json:"system_prompt,omitempty"`
	Marker            bool                   `json:"marker,omitempty"`
	InjectionPosition int                    `json:"injection_position,omitempty"`
	InjectionDepth    int                    `json:"injection_depth,omitempty"`
	InjectionOrder    int                    `json:"injection_order"`
	ForbidOverrides   bool                   `json:"forbid_overrides,omitempty"`
	InjectionTrigger  []string               `json:"injection_trigger,omitempty"`
	Meta              map[string]interface{} `json:"meta,omitempty"`
}

// Preset 一份完整的提示词预设：根节点永远是 group
type Preset struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Version int                    `json:"version"`
	Root    *Node                  `json:"root"`
	Meta    map[string]interface{} `json:"meta"`
}

// LeafFields prompt 节点的扩展字段集合。
// 调用方应从 DefaultLeafFields 出发覆盖需要的字段，保证默认值一致。
type LeafFields struct {
	SystemPrompt      bool
	Marker            bool
	InjectionPosition int
	InjectionDepth    int
	InjectionOrder    int
	ForbidOverrides   bool
	InjectionTrigger  []string
	Meta              map[string]interface{}
}

// DefaultLeafFields 返回 prompt 节点扩展字段的默认值
func DefaultLeafFields() LeafFields {
	return LeafFields{
		SystemPrompt:     true,
		InjectionDepth:   4,
		InjectionTrigger: []string{},
		Meta:             map[string]interface{}{},
	}
}

// hexToken 生成 n 位十六进制随机标识（uuid4 去掉连字符后截断）
func hexToken(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// NewGroup 创建 group 节点，总是铸造全新的 id
func NewGroup(title string, children []*Node, enabled bool, identifier string) *Node {
	if identifier == "" {
		identifier = "group_" + hexToken(6)
	}
	if children == nil {
		children = []*Node{}
	}
	return &Node{
		ID:         "node_" + hexToken(10),
		Identifier: identifier,
		Kind:       KindGroup,
		Title:      title,
		Enabled:    enabled,
		Children:   children,
	}
}

// NewPrompt 创建 prompt 节点，总是铸造全新的 id
func NewPrompt(title, content, role string, enabled bool, identifier string, extra LeafFields) *Node {
	if identifier == "" {
		identifier = "prompt_" + hexToken(6)
	}
	if role == "" {
		role = "system"
	}
	if extra.InjectionTrigger == nil {
		extra.InjectionTrigger = []string{}
	}
	if extra.Meta == nil {
		extra.Meta = map[string]interface{}{}
	}
	return &Node{
		ID:                "node_" + hexToken(10),
		Identifier:        identifier,
		Kind:              KindPrompt,
		Title:             title,
		Enabled:           enabled,
		Role:              role,
		Content:           content,
		SystemPrompt:      extra.SystemPrompt,
		Marker:            extra.Marker,
		InjectionPosition: extra.InjectionPosition,
		InjectionDepth:    extra.InjectionDepth,
		InjectionOrder:    extra.InjectionOrder,
		ForbidOverrides:   extra.ForbidOverrides,
		InjectionTrigger:  extra.InjectionTrigger,
		Meta:              extra.Meta,
	}
}

// DefaultPreset 生成出厂预设：一个根 group 加两条默认提示词
func DefaultPreset(name string) *Preset {
	if name == "" {
		name = "默认预设"
	}

	charPersonality := DefaultLeafFields()
	charPersonality.InjectionOrder = 100

	sysSetting := DefaultLeafFields()
	sysSetting.InjectionOrder = 101

	root := NewGroup("全局设定", []*Node{
		NewPrompt(
			"➡️Char Personality",
			"你是一个擅长中文叙事的互动小说引擎...",
			"system",
			true,
			"charPersonality",
			charPersonality,
		),
		NewPrompt(
			"🧭系统设定",
			"Identity Confirmation: 你是互动式小说生成器...",
			"system",
			false,
			"sys_setting",
			sysSetting,
		),
	}, true, "root_group")

	return &Preset{
		ID:      "preset_" + hexToken(10),
		Name:    name,
		Version: 2,
		Root:    root,
		Meta:    map[string]interface{}{},
	}
}
