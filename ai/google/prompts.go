package google

import (
	"fmt"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
)

const notePromptTemplate = `You are a helpful assistant that strictly follows instructions. Your task is to generate content for a Xiaohongshu note.
Your output MUST be a single, valid JSON object and nothing else. Do not include any text before or after the JSON object, such as markdown formatting.

The JSON object must contain exactly these three keys: "title", "content", and "tags".

Here is an example of the required output format:
{
  "title": "Example Title",
  "content": "This is an example note content with emojis ✨.",
  "tags": ["example", "demo"]
}

Now, generate the content for the following topic.

USER'S TOPIC: %q`

const imagePromptTemplate = `You are an expert in visual art. Based on the text, create a concise, highly descriptive, and artistic prompt in English for an AI image model like Imagen. Focus on visual details, style, and lighting. The prompt should be a single, fluent sentence. Text: %q`

// buildNotePrompt embeds the topic into the strict-JSON note instruction.
func buildNotePrompt(topic string) string {
	return fmt.Sprintf(notePromptTemplate, topic)
}

// buildOptimizerPrompt shows Gemini the truncated note body and asks for an
// Imagen-ready scene description.
func buildOptimizerPrompt(content string) string {
	return fmt.Sprintf(imagePromptTemplate, core.TruncateRunes(content, ai.GeminiPromptContentRunes))
}

// fallbackImagePrompt is the plain template used when optimization fails.
func fallbackImagePrompt(content string) string {
	return "A beautiful social media image about: " + core.TruncateRunes(content, ai.SimplePromptContentRunes)
}
