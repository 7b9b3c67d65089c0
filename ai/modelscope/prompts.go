package modelscope

import (
	"fmt"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
)

const systemPrompt = `你是一个专业的小红书内容创作助手。
你需要根据用户提供的主题，生成符合小红书风格的内容。
输出必须是一个有效的JSON对象，包含以下三个键：
1. "title": 标题（最多20个字，吸引眼球）
2. "content": 正文内容（300-500字，包含emoji，分段清晰，实用性强）
3. "tags": 标签列表（3-5个相关标签）

示例输出：
{
  "title": "周末宅家也能瘦！懒人减脂秘籍✨",
  "content": "姐妹们！谁说减肥一定要去健身房？今天分享我的懒人减脂法～\n\n🌟 早餐这样吃\n...",
  "tags": ["减脂", "懒人瘦身", "宅家运动", "健康生活"]
}`

// buildUserMessage wraps the topic in the creation request.
func buildUserMessage(topic string) string {
	return fmt.Sprintf("请为以下主题创作小红书内容：%s", topic)
}

// buildImagePrompt derives an English synthesis prompt from the note body.
func buildImagePrompt(content string) string {
	return fmt.Sprintf(
		"Create a beautiful, high-quality image for social media post about: %s Style: modern, clean, vibrant colors, professional photography, trending on social media",
		core.TruncateRunes(content, ai.ImagePromptContentRunes))
}
