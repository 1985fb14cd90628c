package api

// InputPayload carries the fields that describe what to generate. The
// server rejects changes to it once a job exists for the draft.
type InputPayload struct {
	Topic              string `json:"topic"`
	Goal               string `json:"goal,omitempty"`
	Idea               string `json:"idea,omitempty"`
	Volume             int    `json:"volume,omitempty"`
	PresentationStyle  string `json:"presentation_style,omitempty"`
	TaskMode           string `json:"task_mode,omitempty"`
	DocumentPath       string `json:"document_path,omitempty"`
	UseAIImages        bool   `json:"use_ai_images,omitempty"`
	UseSmartProcessing bool   `json:"use_smart_processing,omitempty"`
}

// SectionPayload is one titled outline entry with its nesting level.
type SectionPayload struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// SourcePayload is one citation entry.
type SourcePayload struct {
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title"`
	Author    string  `json:"author,omitempty"`
	Year      int     `json:"year,omitempty"`
	URL       string  `json:"url,omitempty"`
	Suggested bool    `json:"suggested,omitempty"`
	Verified  bool    `json:"verified,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// FormattingPayload is the typographic rule set applied to the result.
type FormattingPayload struct {
	Preset      string  `json:"preset,omitempty"`
	Font        string  `json:"font,omitempty"`
	FontSize    int     `json:"font_size,omitempty"`
	LineSpacing float64 `json:"line_spacing,omitempty"`
}

// TitlePagePayload is the structured title-page metadata block.
type TitlePagePayload struct {
	University string `json:"university,omitempty"`
	Department string `json:"department,omitempty"`
	Student    string `json:"student,omitempty"`
	Supervisor string `json:"supervisor,omitempty"`
	City       string `json:"city,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// SettingsPayload stays mutable for the draft's whole life, including
// after a job has been created from it.
type SettingsPayload struct {
	Structure  []SectionPayload  `json:"structure,omitempty"`
	Sources    []SourcePayload   `json:"sources,omitempty"`
	Formatting FormattingPayload `json:"formatting,omitempty"`
	TitlePage  TitlePagePayload  `json:"title_page,omitempty"`
}

// Draft is the server-side projection of a wizard form.
type Draft struct {
	ID              string          `json:"id"`
	Module          string          `json:"module"`
	WorkType        string          `json:"work_type,omitempty"`
	ComplexityLevel int             `json:"complexity_level,omitempty"`
	HumanityLevel   int             `json:"humanity_level,omitempty"`
	Input           InputPayload    `json:"input_payload"`
	Settings        SettingsPayload `json:"settings_payload"`
	JobID           string          `json:"job_id,omitempty"`
}

// CreateDraftRequest is the body of POST /generations.
type CreateDraftRequest struct {
	Module          string          `json:"module"`
	WorkType        string          `json:"work_type,omitempty"`
	ComplexityLevel int             `json:"complexity_level,omitempty"`
	HumanityLevel   int             `json:"humanity_level,omitempty"`
	Input           InputPayload    `json:"input_payload"`
	Settings        SettingsPayload `json:"settings_payload"`
}

// UpdateDraftRequest is the partial body of PATCH /generations/{id}.
// Input is nil once a job exists for the draft.
type UpdateDraftRequest struct {
	WorkType        string           `json:"work_type,omitempty"`
	ComplexityLevel int              `json:"complexity_level,omitempty"`
	HumanityLevel   int              `json:"humanity_level,omitempty"`
	Input           *InputPayload    `json:"input_payload,omitempty"`
	Settings        *SettingsPayload `json:"settings_payload,omitempty"`
}

// DetailsRequest is the body of POST /suggest/details.
type DetailsRequest struct {
	Topic string `json:"topic"`
}

// DetailsSuggestion is the goal/idea pair proposed for a topic.
type DetailsSuggestion struct {
	Goal string `json:"goal"`
	Idea string `json:"idea"`
}

// StructureRequest is the body of POST /suggest/structure.
type StructureRequest struct {
	Topic      string `json:"topic"`
	Goal       string `json:"goal,omitempty"`
	Idea       string `json:"idea,omitempty"`
	WorkType   string `json:"work_type,omitempty"`
	Volume     int    `json:"volume,omitempty"`
	Complexity int    `json:"complexity,omitempty"`
}

// StructureSuggestion is the proposed outline. The server supplies no
// ids; the client assigns them on merge.
type StructureSuggestion struct {
	Sections []SectionPayload `json:"sections"`
}

// SourcesRequest is the body of POST /suggest/sources.
type SourcesRequest struct {
	Topic      string `json:"topic"`
	Goal       string `json:"goal,omitempty"`
	Idea       string `json:"idea,omitempty"`
	Module     string `json:"module"`
	WorkType   string `json:"work_type,omitempty"`
	Volume     int    `json:"volume,omitempty"`
	Complexity int    `json:"complexity,omitempty"`
	Humanity   int    `json:"humanity,omitempty"`
}

// SourcesSuggestion is the proposed citation list.
type SourcesSuggestion struct {
	Sources []SourcePayload `json:"sources"`
}

// Cost is the verdict of GET /generations/{id}/cost.
type Cost struct {
	Required    int  `json:"required_credits"`
	Available   int  `json:"available_credits"`
	CanGenerate bool `json:"can_generate"`
}

// Job is the unit of work created from a finalized draft.
type Job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
