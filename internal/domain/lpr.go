package domain

// TextCandidate is one recognized string with its approximate confidence (0..1).
type TextCandidate struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

// LPRRequestDTO asks for a one-off plate read of an uploaded image.
type LPRRequestDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	Enhance     bool   `json:"enhance"`
}

type LPRResponseDTO struct {
	DetectedPlate string          `json:"detected_plate"`
	Valid         bool            `json:"valid"`
	Candidates    []TextCandidate `json:"candidates"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}
