package dashscope

import (
	"fmt"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
)

const systemPrompt = `你是一个专业的小红书内容创作助手。
你需要根据用户提供的主题，生成符合小红书风格的内容。
输出必须是一个有效的JSON对象，格式如下：
{
  "title": "吸引眼球的标题（最多20字）",
  "content": "详细内容（300-500字，包含emoji，实用性强）",
  "tags": ["标签1", "标签2", "标签3"]
}

要求：
1. 标题要吸引人，使用数字、emoji等元素
2. 内容要分段，使用emoji装饰，提供实用价值
3. 标签要精准，3-5个相关标签`

// buildUserMessage wraps the topic in the creation request.
func buildUserMessage(topic string) string {
	return fmt.Sprintf("请为以下主题创作小红书内容：%s", topic)
}

// buildImagePrompt derives a styled synthesis prompt from the note body.
func buildImagePrompt(content string) string {
	return fmt.Sprintf("高质量社交媒体配图，主题：%s。风格：现代、清新、明亮、专业摄影",
		core.TruncateRunes(content, ai.ImagePromptContentRunes))
}
