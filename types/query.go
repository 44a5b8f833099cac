package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	SourceUploaded = "uploaded"
	SourceOnline   = "online"
	SourceBoth     = "both"
)

var validate = validator.New()

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

// QueryParams is the /query request body. PreviousMessages optionally carries
// a JSON-serialized []Message that replaces the stored chat history.
type QueryParams struct {
	Query            string `json:"query" validate:"required"`
	Source           string `json:"source" validate:"omitempty,oneof=uploaded online both"`
	SessionID        string `json:"session_id"`
	PreviousMessages string `json:"previous_messages"`
}

func (params *QueryParams) Validate() map[string]string {
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type QueryResponse struct {
	UploadedDocuments []Chunk   `json:"uploaded_documents,omitempty"`
	OnlinePapers      []Paper   `json:"online_papers,omitempty"`
	Answer            string    `json:"answer"`
	ChatHistory       []Message `json:"chat_history"`
}

type UploadResponse struct {
	SessionID  string `json:"session_id"`
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

type FilesResponse struct {
	Files []FileSummary `json:"files"`
}
