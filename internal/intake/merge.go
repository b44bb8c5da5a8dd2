package intake

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"family-llm/internal/domain"
)

// MergeEngine incorpora lotes de campos extraidos al perfil canonico.
// Cada campo se reemplaza entero solo cuando el valor entrante no esta
// vacio; nunca se hace un merge parcial dentro de un campo.
type MergeEngine struct {
	logger *zap.Logger
}

func NewMergeEngine(logger *zap.Logger) *MergeEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeEngine{logger: logger}
}

// Merge aplica el resultado de extraccion sobre profile y corre las dos
// pasadas de backfill. userTurns es la concatenacion cronologica de todos
// los turnos del usuario, no solo el ultimo. La operacion es idempotente:
// repetir el mismo lote no cambia nada, y created_at se fija una unica vez,
// la primera vez que el perfil deja de estar vacio.
func (m *MergeEngine) Merge(profile *domain.UserProfile, result ExtractionResult, userTurns []string, now time.Time) {
	if result.ParseFailed {
		m.logger.Warn("extraction payload unparseable, skipping merge")
		return
	}
	for _, field := range result.Dropped {
		m.logger.Warn("extracted field dropped: shape mismatch", zap.String("field", field))
	}

	m.applyFields(profile, &result.Fields)
	m.backfillAppearance(profile)
	m.backfillFromText(profile, userTurns)

	if profile.CreatedAt == nil && !profile.IsEmpty() {
		created := now.UTC()
		profile.CreatedAt = &created
	}
}

func (m *MergeEngine) applyFields(profile *domain.UserProfile, fields *ExtractedFields) {
	if fields.Age != nil {
		profile.Age = fields.Age
	}
	if s := deref(fields.Gender); s != "" {
		profile.Gender = s
	}
	if s := deref(fields.IncomeRange); s != "" {
		profile.IncomeRange = s
	}
	if s := deref(fields.Location); s != "" {
		profile.Location = s
	}
	if s := deref(fields.RelationshipStatus); s != "" {
		profile.RelationshipStatus = s
	}
	if len(fields.Interests) > 0 {
		profile.Interests = fields.Interests
	}
	if s := deref(fields.WorkStyle); s != "" {
		profile.WorkStyle = s
	}
	if s := deref(fields.FutureCareer); s != "" {
		profile.FutureCareer = s
	}
	if len(fields.Lifestyle) > 0 {
		profile.Lifestyle = fields.Lifestyle
	}
	if !fields.CurrentPartner.IsEmpty() {
		profile.CurrentPartner = fields.CurrentPartner
	}
	if !fields.IdealPartner.IsEmpty() {
		profile.IdealPartner = fields.IdealPartner
	}
	if s := deref(fields.PartnerFaceDescription); s != "" {
		profile.PartnerFaceDescription = s
	}
	if !fields.UserPersonalityTraits.IsEmpty() {
		profile.UserPersonalityTraits = fields.UserPersonalityTraits
	}
	if len(fields.ChildrenInfo) > 0 {
		profile.ChildrenInfo = fields.ChildrenInfo
	}
}

// backfillAppearance copia la descripcion normalizada de rostro al registro
// de pareja activo cuando este no tiene ningun sinonimo de apariencia.
// Una sola direccion: el texto normalizado manda, nunca al reves.
func (m *MergeEngine) backfillAppearance(profile *domain.UserProfile) {
	if strings.TrimSpace(profile.PartnerFaceDescription) == "" {
		return
	}
	partner := profile.ActivePartner()
	if partner == nil || partner.AppearanceText() != "" {
		return
	}
	partner.Appearance = profile.PartnerFaceDescription
}

// Patrones fijos de auto-identificacion de genero. Se evaluan en orden y
// gana el primero que matchea.
var genderPatterns = []struct {
	re    *regexp.Regexp
	value string
}{
	{regexp.MustCompile(`(私|わたし|僕|ぼく|俺|おれ)は男性?です`), "男性"},
	{regexp.MustCompile(`(私|わたし)は女性?です`), "女性"},
	{regexp.MustCompile(`男性です`), "男性"},
	{regexp.MustCompile(`女性です`), "女性"},
	{regexp.MustCompile(`男です`), "男性"},
	{regexp.MustCompile(`女です`), "女性"},
}

// incomePattern captura el monto que sigue al token de ingreso anual,
// con o sin unidad 万/億. Se aplica sobre texto con digitos normalizados.
var incomePattern = regexp.MustCompile(`年収は?\s*([0-9][0-9,]*(?:\.[0-9]+)?(?:万|億)?円)`)

// backfillFromText escanea todos los turnos del usuario con reglas fijas y
// completa gender e income_range solo si siguen vacios. Idempotente: nunca
// pisa un valor ya presente.
func (m *MergeEngine) backfillFromText(profile *domain.UserProfile, userTurns []string) {
	if len(userTurns) == 0 {
		return
	}
	text := normalizeDigits(strings.Join(userTurns, "\n"))

	if strings.TrimSpace(profile.Gender) == "" {
		for _, pattern := range genderPatterns {
			if pattern.re.MatchString(text) {
				profile.Gender = pattern.value
				m.logger.Info("gender backfilled from conversation text", zap.String("gender", pattern.value))
				break
			}
		}
	}

	if strings.TrimSpace(profile.IncomeRange) == "" {
		if match := incomePattern.FindStringSubmatch(text); match != nil {
			profile.IncomeRange = match[1]
			m.logger.Info("income_range backfilled from conversation text", zap.String("income_range", match[1]))
		}
	}
}

// normalizeDigits convierte digitos y comas de ancho completo a ASCII.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return '0' + (r - '０')
		case r == '，':
			return ','
		}
		return r
	}, s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
