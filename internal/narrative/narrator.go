package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// SystemPrompt frames the model as a packaging industry analyst.
const SystemPrompt = "Eres un analista de negocios experto en la industria de empaques."

// FallbackPrefix starts the text returned when a narrative cannot be produced.
const FallbackPrefix = "Análisis no disponible: "

const missing = "N/D"

// Completer produces a completion for a system and user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Outcome observes whether each narrative came from the model.
type Outcome interface {
	ObserveNarrative(ok bool)
}

// Narrator turns one annotated record into prose. It never fails: errors
// collapse to fallback text.
type Narrator struct {
	completer Completer
	logger    *slog.Logger
	outcome   Outcome
}

// NewNarrator constructs a Narrator. logger and outcome may be nil.
func NewNarrator(completer Completer, logger *slog.Logger, outcome Outcome) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{completer: completer, logger: logger, outcome: outcome}
}

// Narrate requests an analysis for rec.
func (n *Narrator) Narrate(ctx context.Context, rec leads.AnnotatedRecord) string {
	text, err := n.narrate(ctx, rec)
	if n.outcome != nil {
		n.outcome.ObserveNarrative(err == nil)
	}
	if err != nil {
		n.logger.Warn("narrative fallback", slog.Int("row", rec.Row), slog.Any("error", err))
		return Fallback(err)
	}
	return text
}

func (n *Narrator) narrate(ctx context.Context, rec leads.AnnotatedRecord) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("narrative: panic: %v", r)
		}
	}()
	if n.completer == nil {
		return "", ErrMissingAPIKey
	}
	text, err = n.completer.Complete(ctx, SystemPrompt, Prompt(rec))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("narrative: empty completion")
	}
	return text, nil
}

// Fallback renders the text shown in place of a failed narrative.
func Fallback(err error) string {
	return FallbackPrefix + err.Error()
}

var printer = message.NewPrinter(language.English)

// Prompt builds the Spanish user message describing rec.
func Prompt(rec leads.AnnotatedRecord) string {
	var b strings.Builder
	b.WriteString("Analiza la siguiente empresa como cliente potencial para una compañía que vende ")
	b.WriteString("fundas, termoformados, empaques y bolsas para alimentos:\n\n")
	fmt.Fprintf(&b, "Empresa: %s\n", rec.LegalName)
	fmt.Fprintf(&b, "Actividad (CIIU): %s\n", orMissing(rec.IndustryCode))
	fmt.Fprintf(&b, "Macrosector: %s\n", orMissing(rec.Macrosector))
	fmt.Fprintf(&b, "Ubicación: %s, %s\n", orMissing(rec.City), orMissing(rec.Department))
	fmt.Fprintf(&b, "Ingresos 2024: %s (miles de pesos)\n", money(rec.Y2024.Revenue))
	fmt.Fprintf(&b, "Crecimiento de ingresos: %.1f%%\n", rec.RevenueGrowthPct)
	fmt.Fprintf(&b, "Margen de ganancia: %.1f%%\n", rec.ProfitMarginPct)
	fmt.Fprintf(&b, "Activos totales: %s (miles de pesos)\n\n", money(rec.Y2024.Assets))
	b.WriteString("Proporciona un análisis conciso (máximo 150 palabras) explicando:\n")
	b.WriteString("1. Por qué sería un buen cliente para empaques\n")
	b.WriteString("2. Qué tipo de empaques probablemente necesitaría\n")
	b.WriteString("3. Su solidez financiera para ser un cliente confiable\n")
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return missing
	}
	return printer.Sprintf("$%.0f", *v)
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
