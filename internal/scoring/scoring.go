// Package scoring calcula a maturidade LGPD a partir das respostas do
// questionário de diagnóstico.
package scoring

import "sort"

// Level is the coarse maturity tier derived from the total score.
type Level string

const (
	LevelInicial   Level = "Inicial"
	LevelEmergente Level = "Emergente"
	LevelAvancado  Level = "Avançado"
)

// Faixas: < 40 Inicial, 40..69 Emergente, >= 70 Avançado.
const (
	emergenteThreshold = 40
	avancadoThreshold  = 70
)

// points é a tabela fixa rótulo -> pontos. "Em andamento" e "Trimestral"
// valem o mesmo que "Parcial".
var points = map[string]int{
	"Sim":          6,
	"Mensal":       6,
	"Parcial":      3,
	"Em andamento": 3,
	"Trimestral":   3,
	"Não":          0,
	"Ad-hoc/Não":   0,
}

var recommendations = map[Level][]string{
	LevelInicial: {
		"Comece pelo Programa de Implementação (exemplo inicial em 12 semanas)",
		"Ative o DPO as a Service sob demanda",
		"Avance para o Sistema de Governança após as bases",
	},
	LevelEmergente: {
		"Consolidar políticas, fluxos do titular e gestão de terceiros",
		"Ativar o Sistema de Governança (comitê, RACI, rituais e KPIs)",
	},
	LevelAvancado: {
		"Aprimorar métricas, auditorias e testes de incidentes",
		"Evoluir o Sistema de Governança com dashboards executivos",
		"Implementar plano anual de auditorias",
	},
}

// Result is the outcome of scoring one questionnaire.
type Result struct {
	TotalScore      int      `json:"totalScore"`
	MaturityLevel   Level    `json:"maturityLevel"`
	Recommendations []string `json:"recommendations"`

	// Unrecognized lists the question ids whose label is not in the table.
	// They scored zero.
	Unrecognized []string `json:"unrecognized,omitempty"`
}

// Score sums the points of every answer and picks the maturity level.
// Unknown labels contribute zero and never fail.
func Score(responses map[string]string) Result {
	total := 0
	var unknown []string

	for question, label := range responses {
		p, ok := Points(label)
		if !ok {
			unknown = append(unknown, question)
			continue
		}
		total += p
	}
	sort.Strings(unknown)

	level := LevelFor(total)
	return Result{
		TotalScore:      total,
		MaturityLevel:   level,
		Recommendations: RecommendationsFor(level),
		Unrecognized:    unknown,
	}
}

// LevelFor maps a total score to its maturity level.
func LevelFor(total int) Level {
	switch {
	case total < emergenteThreshold:
		return LevelInicial
	case total < avancadoThreshold:
		return LevelEmergente
	default:
		return LevelAvancado
	}
}

// RecommendationsFor returns a copy of the fixed recommendation list.
func RecommendationsFor(level Level) []string {
	list := recommendations[level]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Points returns the value of a single answer label.
func Points(label string) (int, bool) {
	p, ok := points[label]
	return p, ok
}

// Levels lists the maturity levels from lowest to highest.
func Levels() []Level {
	return []Level{LevelInicial, LevelEmergente, LevelAvancado}
}
