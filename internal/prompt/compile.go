// internal/prompt/compile.go
package prompt

import (
	"sort"
	"strings"
)

// collectLeaves 深度优先收集启用状态下可达的 prompt 节点。
// group 被禁用时整棵子树都不参与编译，子节点自身的 enabled 不能翻案。
func collectLeaves(node *Node, out *[]*Node) {
	if node == nil || !node.Enabled {
		return
	}
	if node.Kind == KindPrompt {
		*out = append(*out, node)
		return
	}
	for _, child := range node.Children {
		collectLeaves(child, out)
	}
}

// CompileSystemPrompt 把预设树线性化为最终的 system prompt 文本。
// 叶子按 injection_order 升序稳定排序（同序保持遍历顺序），
// 内容去除首尾空白后为空的叶子不输出任何块。
func CompileSystemPrompt(preset *Preset) string {
	if preset == nil || preset.Root == nil {
		return ""
	}

	var leaves []*Node
	collectLeaves(preset.Root, &leaves)

	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].InjectionOrder < leaves[j].InjectionOrder
	})

	chunks := make([]string, 0, len(leaves))
	for _, node := range leaves {
		content := strings.TrimSpace(node.Content)
		if content == "" {
			continue
		}
		ident := node.Identifier
		if ident == "" {
			ident = node.Title
		}
		chunks = append(chunks, "--- "+ident+" ---\n"+content)
	}

	return strings.Join(chunks, "\n\n")
}
