package models

type AnalyzeRequest struct {
	// Hint is free text from the submitter, e.g. "Rawlings Heart of the Hide 11.5".
	Hint string `form:"hint"`
	// ArtifactID groups repeat submissions of the same physical glove.
	// A new one is minted when absent.
	ArtifactID string `form:"artifact_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
