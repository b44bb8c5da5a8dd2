package domain

import "time"

// ConversationEntry es una linea del log compartido: quien hablo, que dijo y cuando.
type ConversationEntry struct {
	Speaker   string    `json:"speaker"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TripState es el estado compartido de la conversacion familiar de una sesion.
// Lo mutan los ejecutores de turno en orden fijo; una vez PlanComplete queda
// congelado y toda mutacion posterior es no-op.
type TripState struct {
	Destination   string              `json:"destination,omitempty"`
	Activities    []string            `json:"activities,omitempty"`
	PlanPrompted  bool                `json:"plan_prompted"`
	PlanConfirmed bool                `json:"plan_confirmed"`
	PlanComplete  bool                `json:"plan_complete"`
	Log           []ConversationEntry `json:"conversation_log,omitempty"`
	Story         string              `json:"story,omitempty"`
	Letter        string              `json:"letter,omitempty"`
}

// Frozen indica que el plan ya fue finalizado.
func (s *TripState) Frozen() bool {
	return s.PlanComplete
}

// SetDestination aplica la regla "gana la ultima escritura no vacia".
func (s *TripState) SetDestination(destination string) {
	if s.Frozen() || destination == "" {
		return
	}
	s.Destination = destination
}

// AddActivities agrega actividades nuevas preservando el orden de primera
// aparicion, sin duplicados.
func (s *TripState) AddActivities(activities []string) {
	if s.Frozen() {
		return
	}
	for _, activity := range activities {
		if activity == "" {
			continue
		}
		exists := false
		for _, stored := range s.Activities {
			if stored == activity {
				exists = true
				break
			}
		}
		if !exists {
			s.Activities = append(s.Activities, activity)
		}
	}
}

// Append agrega una entrada al log compartido.
func (s *TripState) Append(speaker, message string, at time.Time) {
	if s.Frozen() {
		return
	}
	s.Log = append(s.Log, ConversationEntry{Speaker: speaker, Message: message, Timestamp: at})
}

// RecentLog devuelve las ultimas n entradas del log.
func (s *TripState) RecentLog(n int) []ConversationEntry {
	if n <= 0 || len(s.Log) <= n {
		return s.Log
	}
	return s.Log[len(s.Log)-n:]
}

// FamilyPlan es el resultado persistido al finalizar la conversacion familiar.
type FamilyPlan struct {
	Destination string              `json:"destination"`
	Activities  []string            `json:"activities"`
	Story       string              `json:"story"`
	Letter      string              `json:"letter"`
	Log         []ConversationEntry `json:"conversation_log"`
}
