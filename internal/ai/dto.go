// AngelaMos | 2026
// dto.go

package ai

type QueryRequest struct {
	Prompt    string `json:"prompt" validate:"required,min=1,max=8000"`
	MaxTokens int    `json:"max_tokens" validate:"omitempty,min=1,max=4096"`
}

type QueryResponse struct {
	Text string `json:"text"`
}

type PaperRequest struct {
	Subject    string   `json:"subject" validate:"required,max=100"`
	ClassName  string   `json:"class_name" validate:"required,max=50"`
	Topics     []string `json:"topics" validate:"required,min=1,max=20,dive,max=200"`
	TotalMarks int      `json:"total_marks" validate:"required,min=10,max=200"`
	Language   string   `json:"language" validate:"omitempty,max=50"`
}

type PaperResponse struct {
	Paper string `json:"paper"`
}

type VoiceRequest struct {
	Text  string `json:"text" validate:"required,min=1,max=4000"`
	Voice string `json:"voice" validate:"omitempty,max=50"`
}
