package domain

// AnalyzeImageRequest asks for a description of an ad-hoc image.
type AnalyzeImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
	FileName    string `json:"fileName,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

// AnalyzeImageResponse carries the generated character description.
type AnalyzeImageResponse struct {
	Description string `json:"description"`
	ThreadID    string `json:"thread_id,omitempty"`
	AttemptID   string `json:"attempt_id,omitempty"`
}

// GenerateStoryRequest is the input of the story workflow.
type GenerateStoryRequest struct {
	CharacterID          string `json:"characterId,omitempty"`
	CharacterName        string `json:"characterName"`
	CharacterDescription string `json:"characterDescription"`
	AdditionalPrompt     string `json:"additionalPrompt,omitempty"`
}

// GenerateStoryResponse carries the generated story.
type GenerateStoryResponse struct {
	Story     string `json:"story"`
	ThreadID  string `json:"thread_id,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`
}

// IllustrationRequest asks for an illustration of a story.
type IllustrationRequest struct {
	StoryText string `json:"storyText"`
}

// IllustrationResponse carries the generated image URL.
type IllustrationResponse struct {
	ImageURL string `json:"imageUrl"`
}

// SaveStoryRequest persists a finished story.
type SaveStoryRequest struct {
	Character        string  `json:"character"`
	CharacterImageID string  `json:"characterImageId"`
	StoryText        string  `json:"storyText"`
	Illustration     *string `json:"illustration,omitempty"`
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
