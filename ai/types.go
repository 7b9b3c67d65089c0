package ai

// Provider names accepted by configuration and walked by the fallback chain.
const (
	ProviderGoogle     = "google"
	ProviderModelScope = "modelscope"
	ProviderDashScope  = "dashscope"
)

// KnownProviders lists every provider the fallback chain can construct,
// in the fixed fallback order.
var KnownProviders = []string{ProviderGoogle, ProviderModelScope, ProviderDashScope}

// Default model identifiers per provider.
const (
	DefaultGeminiModel  = "gemini-1.5-flash"
	DefaultImagenModel  = "imagen-3"
	DefaultQwenModel    = "qwen-plus"
	DefaultWanxModel    = "wanx-v1"
	DefaultMSTextModel  = "Qwen/Qwen2.5-72B-Instruct"
	DefaultMSImageModel = "MusePublic/489_ckpt_FLUX_1"
)

// Default service endpoints. Overridable for testing against fakes.
const (
	DefaultGoogleBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultDashScopeBaseURL  = "https://dashscope.aliyuncs.com"
	DefaultModelScopeBaseURL = "https://api-inference.modelscope.cn/v1"
)

// Rune budgets for prompts derived from note content. Content beyond the
// budget is cut before embedding it in an image prompt.
const (
	ImagePromptContentRunes  = 200 // dashscope and modelscope style prompts
	GeminiPromptContentRunes = 300 // content shown to Gemini when optimizing a prompt
	SimplePromptContentRunes = 100 // plain fallback prompt when optimization fails
)
