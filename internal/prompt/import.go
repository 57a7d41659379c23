// internal/prompt/import.go
package prompt

import "fmt"

// 导入逻辑：把来历不明的 JSON 结构清洗成合法的预设树。
// 所有入口都是全函数——不管输入多畸形都不会返回错误，
// 最坏情况下降级为一棵空的禁用树，并通过 warnings 把降级原因带出去。

// SanitizeNode 递归清洗单个节点，保证结构合法且 id 全部重新生成。
// identifier 是唯一保留原值的字段，用于跨导入的交叉引用。
func SanitizeNode(raw interface{}) *Node {
	node, _ := sanitizeNode(raw, "root")
	return node
}

func sanitizeNode(raw interface{}, path string) (*Node, []string) {
	data, ok := raw.(map[string]interface{})
	if !ok {
		// 防御性降级：非对象输入变成禁用的空 group
		return NewGroup("无效节点", nil, false, ""),
			[]string{fmt.Sprintf("%s: 非对象节点已降级为禁用空组", path)}
	}

	var warnings []string

	// 1. 判定类型：声明为 group 或携带 children 数组的都按组处理
	rawChildren, hasChildren := data["children"].([]interface{})
	isGroup := asString(data["kind"]) == KindGroup || hasChildren

	// 2. 提取公共属性
	title := asString(data["title"])
	if title == "" {
		title = asString(data["name"])
	}
	if title == "" {
		title = "导入节点"
	}
	enabled := asBool(data["enabled"], true)
	identifier := asString(data["identifier"])

	if isGroup {
		children := make([]*Node, 0, len(rawChildren))
		for i, child := range rawChildren {
			clean, ws := sanitizeNode(child, fmt.Sprintf("%s.children[%d]", path, i))
			children = append(children, clean)
			warnings = append(warnings, ws...)
		}
		return NewGroup(title, children, enabled, identifier), warnings
	}

	// prompt 节点
	content := asString(data["content"])
	if content == "" {
		content = asString(data["text"])
	}
	role := asString(data["role"])
	if role == "" {
		role = "system"
	}

	extra := DefaultLeafFields()
	extra.SystemPrompt = asBool(data["system_prompt"], true)
	extra.Marker = asBool(data["marker"], false)
	extra.InjectionPosition = asInt(data["injection_position"], 0)
	extra.InjectionDepth = asInt(data["injection_depth"], 4)
	extra.InjectionOrder = asInt(data["injection_order"], 0)
	extra.ForbidOverrides = asBool(data["forbid_overrides"], false)
	extra.InjectionTrigger = asStringSlice(data["injection_trigger"])
	extra.Meta = asMap(data["meta"])

	return NewPrompt(title, content, role, enabled, identifier, extra), warnings
}

// ImportPreset 通用导入入口，按优先级识别载荷形态：
// 1. 完整预设导出（含 root）
// 2. 单个根节点对象
// 3. 扁平的提示词数组
// 4. 带 prompts 数组的对象
// 5. 单个提示词对象
// 其余一律降级为空导入。返回的 warnings 记录所有静默降级，供调用方透出。
func ImportPreset(payload interface{}, nameHint string) (*Preset, []string) {
	if nameHint == "" {
		nameHint = "导入预设"
	}

	var (
		root     *Node
		warnings []string
	)

	switch p := payload.(type) {
	case map[string]interface{}:
		if rawRoot, ok := p["root"]; ok {
			root, warnings = sanitizeNode(rawRoot, "root")
			break
		}
		if _, hasChildren := p["children"].([]interface{}); hasChildren || asString(p["kind"]) == KindGroup {
			root, warnings = sanitizeNode(p, "root")
			break
		}
		if prompts, ok := p["prompts"].([]interface{}); ok {
			root, warnings = wrapChildren(prompts, nameHint)
			break
		}
		// 单个提示词：清洗后若本身成了 group 直接用，否则包一层
		var clean *Node
		clean, warnings = sanitizeNode(p, "root")
		if clean.Kind == KindGroup {
			root = clean
		} else {
			root = NewGroup(nameHint+" Root", []*Node{clean}, true, "")
		}
	case []interface{}:
		root, warnings = wrapChildren(p, nameHint)
	}

	if root == nil {
		root = NewGroup("空导入", nil, false, "")
		warnings = append(warnings, "载荷无法识别，已降级为空导入")
	}

	return &Preset{
		ID:      "preset_" + hexToken(10),
		Name:    nameHint,
		Version: 1,
		Root:    root,
		Meta:    map[string]interface{}{"source": "import"},
	}, warnings
}

func wrapChildren(items []interface{}, nameHint string) (*Node, []string) {
	var warnings []string
	children := make([]*Node, 0, len(items))
	for i, item := range items {
		clean, ws := sanitizeNode(item, fmt.Sprintf("prompts[%d]", i))
		children = append(children, clean)
		warnings = append(warnings, ws...)
	}
	return NewGroup(nameHint+" Root", children, true, ""), warnings
}

// --- 类型提取辅助：JSON 解码出的 interface{} 按默认值宽容转换 ---

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func asInt(v interface{}, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return def
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asMap(v interface{}) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}
