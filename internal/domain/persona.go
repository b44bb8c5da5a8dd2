package domain

// Persona describe a un miembro simulado de la familia futura.
type Persona struct {
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	SpeakingStyle string   `json:"speaking_style"`
	Traits        []string `json:"traits"`
	Goals         string   `json:"goals"`
	Background    string   `json:"background"`
}

// IntakeReply es la respuesta estructurada de un turno de intake.
type IntakeReply struct {
	Speaker       string   `json:"speaker"`
	Message       string   `json:"message"`
	Completed     bool     `json:"completed"`
	MissingFields []string `json:"missing_fields,omitempty"`
}
