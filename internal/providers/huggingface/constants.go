package huggingface

const (
	DefaultChatURL   = "https://router.huggingface.co/v1/chat/completions"
	EnvAPITokenKey   = "HF_API_KEY"
	EnvDebugKey      = "DEBUG_HUGGINGFACE"
	DefaultModelName = "deepseek-ai/DeepSeek-R1-Distill-Qwen-1.5B"
)
